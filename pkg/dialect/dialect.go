// Package dialect defines the capability a query-compilation engine consumes
// to render database-specific SQL fragments. Each target database provides
// one Rules implementation and registers it by name from its init function.
package dialect

import (
	"sort"
	"sync"
)

// Granularity is a time-bucketing unit for time-series grouping.
type Granularity string

const (
	GranularitySecond Granularity = "second"
	GranularityMinute Granularity = "minute"
	GranularityHour   Granularity = "hour"
	GranularityDay    Granularity = "day"
	GranularityWeek   Granularity = "week"
	GranularityMonth  Granularity = "month"
	GranularityYear   Granularity = "year"
)

// MatchKind selects where wildcards go in a pattern match.
type MatchKind string

const (
	MatchContains MatchKind = "contains"
	MatchStarts   MatchKind = "starts"
	MatchEnds     MatchKind = "ends"
)

// Rules renders the dialect-specific pieces of a SELECT statement.
// Implementations are stateless apart from configuration and safe for concurrent use.
type Rules interface {
	// Name is the registry key, e.g. "oracle".
	Name() string

	// Pagination renders the row-limit clause. A nil limit means "no limit"
	// and yields an empty clause. limit and offset are loosely typed engine values.
	Pagination(limit, offset any) string

	// AsSyntaxTable is the keyword placed between a table and its alias.
	AsSyntaxTable() string

	// AsSyntaxJoin is the keyword placed between a joined subquery and its alias.
	AsSyntaxJoin() string

	// GroupByClause renders GROUP BY over the given dimension expressions.
	GroupByClause(dimensionSQL []string) string

	// TimeGroupedColumn truncates expr to the granularity. An empty
	// granularity returns expr unchanged.
	TimeGroupedColumn(granularity Granularity, expr string) (string, error)

	// FormatFromDate normalizes a lower range bound to local date-time seconds.
	FormatFromDate(value, timezone string) (string, error)

	// FormatToDate normalizes an upper range bound to local date-time seconds.
	FormatToDate(value, timezone string) (string, error)

	// LikeIgnoreCase renders a case-insensitive pattern match against a bound parameter.
	LikeIgnoreCase(column string, not bool, param string, kind MatchKind) string

	// ValidateIdentifier returns name unchanged, or an error if the database
	// would reject it.
	ValidateIdentifier(name string) (string, error)
}

// AliasTable renders "source<as> alias" using the dialect's aliasing keyword.
func AliasTable(r Rules, source, alias string) string {
	return source + r.AsSyntaxTable() + " " + alias
}

// AliasJoin renders "source<as> alias" for a joined subquery.
func AliasJoin(r Rules, source, alias string) string {
	return source + r.AsSyntaxJoin() + " " + alias
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Rules)
)

// Register makes rules available by name. Called from init functions.
func Register(r Rules) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[r.Name()] = r
}

// Get returns the registered rules for name.
func Get(name string) (Rules, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r, ok
}

// Names returns all registered dialect names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
