package jsonutil

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// FlexibleInt coerces a loosely typed value (decoded JSON, YAML, env string)
// into an int the way a lenient query engine would: numbers are truncated
// toward zero, strings contribute their leading integer prefix ("25rows" -> 25).
// Returns false when no integer can be extracted.
func FlexibleInt(v any) (int, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		return parseIntPrefix(n.String())
	case json.RawMessage:
		if len(n) == 0 || string(n) == "null" {
			return 0, false
		}
		var decoded any
		if err := json.Unmarshal(n, &decoded); err != nil {
			return 0, false
		}
		return FlexibleInt(decoded)
	case string:
		return parseIntPrefix(n)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return 0, false
			}
			return FlexibleInt(rv.Elem().Interface())
		}
		return 0, false
	}
}

// FlexibleBool coerces booleans and their common string spellings.
func FlexibleBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt || f < math.MinInt {
		return 0, false
	}
	return int(f), true
}

// parseIntPrefix reads an optional sign followed by leading decimal digits.
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
