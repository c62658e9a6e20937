package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveHost(t *testing.T) {
	tests := []struct {
		host     string
		inDocker bool
		expected string
	}{
		{"localhost", true, "host.docker.internal"},
		{"127.0.0.1", true, "host.docker.internal"},
		{"localhost", false, "localhost"},
		{"oracle.example.com", true, "oracle.example.com"},
		{"10.0.0.5", true, "10.0.0.5"},
		{"host.docker.internal", false, "host.docker.internal"},
	}

	for _, tt := range tests {
		if got := resolveHost(tt.host, tt.inDocker); got != tt.expected {
			t.Errorf("resolveHost(%q, %v) = %q, want %q", tt.host, tt.inDocker, got, tt.expected)
		}
	}
}

func TestResolveHostForDocker_LeavesRemoteHostsAlone(t *testing.T) {
	for _, host := range []string{"oracle.example.com", "192.168.1.100"} {
		if got := ResolveHostForDocker(host); got != host {
			t.Errorf("ResolveHostForDocker(%q) = %q, want unchanged", host, got)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, ".dockerenv")

	if fileExists(marker) {
		t.Fatal("marker should not exist yet")
	}
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !fileExists(marker) {
		t.Error("marker should exist")
	}
}
