package sql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
)

// ExtractBindNames finds the :name bind variables of an Oracle statement and
// returns them deduplicated in order of first appearance. Placeholders inside
// literals, quoted identifiers and comments are ignored. Oracle bind names
// are case-insensitive, so :ID and :id count once.
//
// Example:
//
//	sql := "SELECT * FROM orders WHERE status = :status AND id > :min_id OR status = :STATUS"
//	names, _ := ExtractBindNames(sql)
//	// names == []string{"status", "min_id"}
func ExtractBindNames(sqlQuery string) ([]string, error) {
	var (
		names []string
		err   error
	)
	seen := make(map[string]bool)
	n := len(sqlQuery)

	walkCode(sqlQuery, func(i int, ch byte) bool {
		if ch != ':' || i+1 >= n || !isBindStart(sqlQuery[i+1]) || isIdentChar(prevByte(sqlQuery, i)) {
			return true
		}
		end := i + 1
		for end < n && isIdentChar(sqlQuery[end]) {
			end++
		}
		name := sqlQuery[i+1 : end]
		if key := strings.ToLower(name); !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
		return true
	}, &err)
	if err != nil {
		return nil, err
	}
	return names, nil
}

func isBindStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// ValidateBinds checks that the statement's bind variables and params match
// exactly. A mismatch is reported as a UserError naming every offender.
//
// Example:
//
//	sql := "SELECT * FROM orders WHERE status = :status"
//	err := ValidateBinds(sql, map[string]any{"region": "EU"})
//	// err: "bind variable :status has no value; parameter region is not used"
func ValidateBinds(sqlQuery string, params map[string]any) error {
	names, err := ExtractBindNames(sqlQuery)
	if err != nil {
		return err
	}

	provided := make(map[string]bool, len(params))
	for name := range params {
		provided[strings.ToLower(strings.TrimPrefix(name, ":"))] = true
	}

	var problems []string
	used := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		used[key] = true
		if !provided[key] {
			problems = append(problems, fmt.Sprintf("bind variable :%s has no value", name))
		}
	}

	var unused []string
	for name := range params {
		if !used[strings.ToLower(strings.TrimPrefix(name, ":"))] {
			unused = append(unused, fmt.Sprintf("parameter %s is not used", name))
		}
	}
	sort.Strings(unused)
	problems = append(problems, unused...)

	if len(problems) > 0 {
		return &apperrors.UserError{Message: strings.Join(problems, "; ")}
	}
	return nil
}
