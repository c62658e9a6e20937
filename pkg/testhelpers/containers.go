// Package testhelpers provides utilities for testing ekaya-oracle components.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	go_ora "github.com/sijms/go-ora/v2"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// OracleTestImage is a small Oracle Database Free image that starts in well under a minute.
const OracleTestImage = "gvenzl/oracle-free:23-slim-faststart"

const (
	testServiceName = "FREEPDB1"
	testUser        = "cube"
	testPassword    = "test_password"
)

// seedStatements create the fixture tables the integration tests introspect.
var seedStatements = []string{
	`CREATE TABLE customers (
		id    NUMBER(10) PRIMARY KEY,
		email VARCHAR2(200) UNIQUE NOT NULL,
		name  VARCHAR2(200)
	)`,
	`CREATE TABLE orders (
		id          NUMBER(10) PRIMARY KEY,
		customer_id NUMBER(10) REFERENCES customers(id),
		status      VARCHAR2(20),
		amount      NUMBER(12, 2),
		created_at  DATE
	)`,
	`INSERT INTO customers (id, email, name) VALUES (1, 'ada@example.com', 'Ada')`,
	`INSERT INTO customers (id, email, name) VALUES (2, 'grace@example.com', 'Grace')`,
	`INSERT INTO orders (id, customer_id, status, amount, created_at) VALUES (1, 1, 'shipped', 120.50, DATE '2024-01-03')`,
	`INSERT INTO orders (id, customer_id, status, amount, created_at) VALUES (2, 1, 'pending', 80.00, DATE '2024-01-09')`,
	`INSERT INTO orders (id, customer_id, status, amount, created_at) VALUES (3, 2, 'shipped', 42.25, DATE '2024-02-14')`,
}

// TestDB holds a shared Oracle container seeded with fixture tables.
type TestDB struct {
	Container   testcontainers.Container
	Host        string
	Port        int
	ServiceName string
	User        string
	Password    string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared Oracle container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

// AdapterConfig returns the generic adapter configuration for the container.
func (db *TestDB) AdapterConfig() map[string]any {
	return map[string]any{
		"host":     db.Host,
		"port":     db.Port,
		"database": db.ServiceName,
		"user":     db.User,
		"password": db.Password,
		"pool_max": 4,
	}
}

// ConnectionString returns the EZConnect target of the container.
func (db *TestDB) ConnectionString() string {
	return fmt.Sprintf("%s:%d/%s", db.Host, db.Port, db.ServiceName)
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        OracleTestImage,
		ExposedPorts: []string{"1521/tcp"},
		Env: map[string]string{
			"ORACLE_PASSWORD":   testPassword,
			"APP_USER":          testUser,
			"APP_USER_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("DATABASE IS READY TO USE!").
			WithStartupTimeout(5 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, "1521")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return nil, fmt.Errorf("failed to parse container port: %w", err)
	}

	testDB := &TestDB{
		Container:   container,
		Host:        host,
		Port:        port,
		ServiceName: testServiceName,
		User:        testUser,
		Password:    testPassword,
	}

	if err := seed(ctx, testDB); err != nil {
		return nil, err
	}
	return testDB, nil
}

// seed creates the fixture tables through a plain database/sql handle,
// since the executor under test only runs queries.
func seed(ctx context.Context, testDB *TestDB) error {
	dsn := go_ora.BuildUrl(testDB.Host, testDB.Port, testDB.ServiceName, testDB.User, testDB.Password, nil)
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return fmt.Errorf("failed to open seed connection: %w", err)
	}
	defer db.Close()

	// Verify connection with retry; the listener may lag the ready log line.
	for i := 0; i < 20; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("failed to reach test database: %w", err)
	}

	for _, stmt := range seedStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to seed test database: %w", err)
		}
	}
	return nil
}
