package datasource

import (
	"context"
	"time"
)

// PoolConnector abstracts connection pool operations across database types.
type PoolConnector interface {
	// Ping verifies the pool can hand out a live connection
	Ping(ctx context.Context) error

	// Close closes all connections in the pool
	Close() error

	// GetType returns the database type for logging/stats
	GetType() string

	// Stats returns a point-in-time snapshot of pool usage
	Stats() PoolStats
}

// PoolStats is a point-in-time snapshot of a connection pool.
type PoolStats struct {
	PoolID       string        `json:"pool_id"`
	MaxOpen      int           `json:"max_open"`
	Open         int           `json:"open"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}
