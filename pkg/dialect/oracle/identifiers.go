package oracle

import (
	"strings"

	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
)

// ValidateIdentifier rejects names longer than the identifier ceiling before
// any SQL reaches the database. Oracle measures identifiers in bytes.
func (r *Rules) ValidateIdentifier(name string) (string, error) {
	if len(name) > r.maxIdentifierLength {
		return "", &apperrors.SchemaViolationError{
			Identifier: name,
			Length:     len(name),
			Limit:      r.maxIdentifierLength,
		}
	}
	return name, nil
}

// PreAggregationTableName composes "schema.table" for a materialized
// pre-aggregation and validates each part against the ceiling.
func (r *Rules) PreAggregationTableName(schema, table string) (string, error) {
	if _, err := r.ValidateIdentifier(table); err != nil {
		return "", err
	}
	if schema == "" {
		return table, nil
	}
	if _, err := r.ValidateIdentifier(schema); err != nil {
		return "", err
	}
	return strings.Join([]string{schema, table}, "."), nil
}
