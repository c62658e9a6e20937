// Package oracle implements dialect.Rules for Oracle Database.
//
// Oracle has no LIMIT keyword, forbids AS between a table and its alias,
// cannot GROUP BY a select-list ordinal and has no ILIKE. The rules here
// render the equivalents the engine needs.
package oracle

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-oracle/pkg/dialect"
)

// Name is the registry key for these rules.
const Name = "oracle"

// DefaultMaxIdentifierLength is the identifier ceiling of Oracle 12.2 and later (bytes).
const DefaultMaxIdentifierLength = 128

// granularityTokens maps a granularity to its TRUNC format model.
var granularityTokens = map[dialect.Granularity]string{
	dialect.GranularitySecond: "ss",
	dialect.GranularityMinute: "mm",
	dialect.GranularityHour:   "HH24",
	dialect.GranularityDay:    "DD",
	dialect.GranularityWeek:   "IW",
	dialect.GranularityMonth:  "MM",
	dialect.GranularityYear:   "YYYY",
}

// Rules renders Oracle SQL fragments.
type Rules struct {
	maxIdentifierLength int
	now                 func() time.Time
}

// Option configures Rules.
type Option func(*Rules)

// WithMaxIdentifierLength overrides the identifier ceiling, e.g. 30 for
// databases running with COMPATIBLE below 12.2.
func WithMaxIdentifierLength(n int) Option {
	return func(r *Rules) {
		if n > 0 {
			r.maxIdentifierLength = n
		}
	}
}

// WithClock replaces the clock used to resolve missing range bounds.
func WithClock(now func() time.Time) Option {
	return func(r *Rules) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns Oracle rules with the given options applied.
func New(opts ...Option) *Rules {
	r := &Rules{
		maxIdentifierLength: DefaultMaxIdentifierLength,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func init() {
	dialect.Register(New())
}

func (r *Rules) Name() string {
	return Name
}

// MaxIdentifierLength returns the configured identifier ceiling in bytes.
func (r *Rules) MaxIdentifierLength() int {
	return r.maxIdentifierLength
}

// AsSyntaxTable is empty: "FROM orders o", never "FROM orders AS o".
func (r *Rules) AsSyntaxTable() string {
	return ""
}

func (r *Rules) AsSyntaxJoin() string {
	return r.AsSyntaxTable()
}

// GroupByClause repeats each dimension expression, since Oracle cannot
// group by select-list position.
func (r *Rules) GroupByClause(dimensionSQL []string) string {
	if len(dimensionSQL) == 0 {
		return ""
	}
	return " GROUP BY " + strings.Join(dimensionSQL, ", ")
}

func (r *Rules) TimeGroupedColumn(granularity dialect.Granularity, expr string) (string, error) {
	if granularity == "" {
		return expr, nil
	}
	token, ok := granularityTokens[granularity]
	if !ok {
		return "", &apperrors.UserError{Message: fmt.Sprintf("unsupported granularity %q", granularity)}
	}
	return fmt.Sprintf("TRUNC(%s, '%s')", expr, token), nil
}

// ConvertTz returns field unchanged; timestamps are compared in session time.
func (r *Rules) ConvertTz(field string) string {
	return field
}

// CastParameter is the placeholder the engine substitutes with a bind name.
func (r *Rules) CastParameter() string {
	return `:"?"`
}

// DateTimeCast converts a bound ISO-8601 string parameter to DATE.
func (r *Rules) DateTimeCast(param string) string {
	return fmt.Sprintf(`to_date(:"%s", 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`, param)
}

func (r *Rules) TimeStampCast(param string) string {
	return r.DateTimeCast(param)
}

// TimeStampParam returns the placeholder for a time dimension bound; string
// typed fields compare against the raw parameter.
func (r *Rules) TimeStampParam(stringField bool) string {
	if stringField {
		return r.CastParameter()
	}
	return r.TimeStampCast("?")
}

// UnixTimestampSQL renders the current time as seconds since the epoch.
func (r *Rules) UnixTimestampSQL() string {
	return `((cast (systimestamp at time zone 'UTC' as date) - date '1970-01-01') * 86400)`
}

// TimestampFormat is the Go layout matching DateTimeCast's format model.
func (r *Rules) TimestampFormat() string {
	return "2006-01-02T15:04:05Z"
}

var _ dialect.Rules = (*Rules)(nil)
