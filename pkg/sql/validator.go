// Package sql checks ad-hoc Oracle statements before they reach the executor.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrMultipleStatements indicates the text holds more than one statement.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrUnterminatedLiteral indicates a quote or comment that never closes.
	ErrUnterminatedLiteral = errors.New("unterminated string literal, quoted identifier or comment")
)

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize strips SQL*Plus terminators and rejects multiple statements.
//
// Oracle rejects a trailing ";" (ORA-00933/ORA-00911) when a statement is
// sent through the driver, so the terminator is removed. A lone "/" line, as
// written after a block in SQL*Plus scripts, is removed as well.
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	normalized := stripTerminator(strings.TrimSpace(sqlQuery))
	if normalized == "" {
		return ValidationResult{}
	}

	var (
		sawSemicolon bool
		err          error
	)
	walkCode(normalized, func(_ int, ch byte) bool {
		if ch == ';' {
			sawSemicolon = true
			return false
		}
		return true
	}, &err)
	if err != nil {
		return ValidationResult{Error: err}
	}
	if sawSemicolon {
		return ValidationResult{Error: ErrMultipleStatements}
	}

	return ValidationResult{NormalizedSQL: normalized}
}

// stripTerminator removes a trailing "/" line and then a trailing ";".
func stripTerminator(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")

	if strings.HasSuffix(sqlQuery, "/") {
		body := strings.TrimRight(strings.TrimSuffix(sqlQuery, "/"), " \t\r")
		if body == "" || strings.HasSuffix(body, "\n") {
			sqlQuery = strings.TrimRight(body, " \t\n\r")
		}
	}

	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimRight(strings.TrimSuffix(sqlQuery, ";"), " \t\n\r")
	}
	return sqlQuery
}

// walkCode calls visit for every byte of sqlQuery that is outside string
// literals, quoted identifiers and comments, until visit returns false.
// Oracle has no backslash escapes: a quote inside a literal is doubled,
// and q'[...]' literals end at the matching closing delimiter.
func walkCode(sqlQuery string, visit func(i int, ch byte) bool, errOut *error) {
	n := len(sqlQuery)
	for i := 0; i < n; i++ {
		ch := sqlQuery[i]
		switch {
		case ch == '-' && i+1 < n && sqlQuery[i+1] == '-':
			end := strings.IndexByte(sqlQuery[i:], '\n')
			if end < 0 {
				return
			}
			i += end

		case ch == '/' && i+1 < n && sqlQuery[i+1] == '*':
			end := strings.Index(sqlQuery[i+2:], "*/")
			if end < 0 {
				*errOut = ErrUnterminatedLiteral
				return
			}
			i += end + 3

		case (ch == 'q' || ch == 'Q') && i+2 < n && sqlQuery[i+1] == '\'' && !isIdentChar(prevByte(sqlQuery, i)):
			closing := closingDelimiter(sqlQuery[i+2])
			end := strings.Index(sqlQuery[i+3:], string(closing)+"'")
			if end < 0 {
				*errOut = ErrUnterminatedLiteral
				return
			}
			i += end + 4

		case ch == '\'':
			end, ok := skipQuoted(sqlQuery, i, '\'')
			if !ok {
				*errOut = ErrUnterminatedLiteral
				return
			}
			i = end

		case ch == '"':
			end, ok := skipQuoted(sqlQuery, i, '"')
			if !ok {
				*errOut = ErrUnterminatedLiteral
				return
			}
			i = end

		default:
			if !visit(i, ch) {
				return
			}
		}
	}
}

// skipQuoted returns the index of the quote closing the literal opened at start.
func skipQuoted(sqlQuery string, start int, quote byte) (int, bool) {
	for i := start + 1; i < len(sqlQuery); i++ {
		if sqlQuery[i] != quote {
			continue
		}
		if i+1 < len(sqlQuery) && sqlQuery[i+1] == quote {
			i++
			continue
		}
		return i, true
	}
	return 0, false
}

func closingDelimiter(open byte) byte {
	switch open {
	case '[':
		return ']'
	case '{':
		return '}'
	case '(':
		return ')'
	case '<':
		return '>'
	default:
		return open
	}
}

func prevByte(s string, i int) byte {
	if i == 0 {
		return ' '
	}
	return s[i-1]
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ch == '$' || ch == '#' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
