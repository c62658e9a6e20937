package datasource

import "context"

// ConnectionTester tests database connectivity.
// Each implementation owns its pool and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}

// SQLExecutor executes SQL statements against the database.
// Used by the query engine once it has finished assembling SQL text.
type SQLExecutor interface {
	// Execute runs one statement with named bind parameters and returns its rows.
	// A statement producing no rows returns an empty, non-nil Rows slice.
	Execute(ctx context.Context, query string, params map[string]any) (*QueryResult, error)
}

// SchemaIntrospector discovers the tables and columns visible to the connected user.
type SchemaIntrospector interface {
	// Schema returns a freshly built, fully ordered schema map.
	Schema(ctx context.Context) (*SchemaMap, error)
}

// Adapter is the full surface a registered datasource exposes to the host engine.
type Adapter interface {
	ConnectionTester
	SQLExecutor
	SchemaIntrospector
}

// Row is a single result row keyed by column name.
type Row = map[string]any

// QueryResult contains the results of a SQL statement execution.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      []Row    `json:"rows"`
	Truncated bool     `json:"truncated,omitempty"` // true when the row cap cut the result short
}
