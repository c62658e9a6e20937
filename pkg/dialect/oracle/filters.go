package oracle

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-oracle/pkg/dialect"
)

const localSecondsLayout = "2006-01-02T15:04:05"

var (
	dateTimeLocalSecondsRegex = regexp.MustCompile(`^\d\d\d\d-\d\d-\d\dT\d\d:\d\d:\d\d$`)
	dateRegex                 = regexp.MustCompile(`^\d\d\d\d-\d\d-\d\d$`)
)

// layouts without a zone are interpreted in the query timezone.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// LikeIgnoreCase uppercases both sides because Oracle has no ILIKE.
// An empty kind matches anywhere, like MatchContains.
func (r *Rules) LikeIgnoreCase(column string, not bool, param string, kind dialect.MatchKind) string {
	prefix, suffix := "", ""
	if kind == "" || kind == dialect.MatchContains || kind == dialect.MatchEnds {
		prefix = "'%' || "
	}
	if kind == "" || kind == dialect.MatchContains || kind == dialect.MatchStarts {
		suffix = " || '%'"
	}
	negate := ""
	if not {
		negate = " NOT"
	}
	return fmt.Sprintf("UPPER(%s)%s LIKE UPPER(%s%s%s)", column, negate, prefix, param, suffix)
}

// FormatFromDate renders a lower range bound without milliseconds, since
// to_date rejects fractional seconds. Bare dates start at midnight.
func (r *Rules) FormatFromDate(value, timezone string) (string, error) {
	return r.formatBound(value, timezone, "T00:00:00")
}

// FormatToDate renders an upper range bound. Bare dates end at 23:59:59.
func (r *Rules) FormatToDate(value, timezone string) (string, error) {
	return r.formatBound(value, timezone, "T23:59:59")
}

func (r *Rules) formatBound(value, timezone, dayTime string) (string, error) {
	if dateTimeLocalSecondsRegex.MatchString(value) {
		return value, nil
	}
	if dateRegex.MatchString(value) {
		return value + dayTime, nil
	}

	loc, err := loadLocation(timezone)
	if err != nil {
		return "", err
	}

	if value == "" {
		return r.now().In(loc).Format("2006-01-02") + dayTime, nil
	}

	t, err := parseTimestamp(value, loc)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(localSecondsLayout), nil
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, &apperrors.UserError{Message: fmt.Sprintf("unknown timezone %q", timezone)}
	}
	return loc, nil
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &apperrors.UserError{Message: fmt.Sprintf("cannot parse date range bound %q", value)}
}
