package oracle

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ekaya-inc/ekaya-oracle/pkg/jsonutil"
)

// DefaultRowLimit applies when the requested limit is not a positive integer.
const DefaultRowLimit = 10000

// Pagination renders OFFSET/FETCH. Oracle has no LIMIT keyword, and OFFSET
// must precede FETCH.
func (r *Rules) Pagination(limit, offset any) string {
	if isNil(limit) {
		return ""
	}

	n, ok := jsonutil.FlexibleInt(limit)
	if !ok || n <= 0 {
		n = DefaultRowLimit
	}

	var b strings.Builder
	if off, ok := jsonutil.FlexibleInt(offset); ok && off > 0 {
		fmt.Fprintf(&b, " OFFSET %d ROWS", off)
	}
	fmt.Fprintf(&b, " FETCH NEXT %d ROWS ONLY", n)
	return b.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
