package airtable

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gearshare-backend/internal/repository"
)

// BuildFormula renders filters as an Airtable formula. A single filter is
// returned bare; several are wrapped in AND().
func BuildFormula(filters []repository.Filter) (string, error) {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		expr, err := filterExpr(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, expr)
	}

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	}
	return "AND(" + strings.Join(parts, ", ") + ")", nil
}

func filterExpr(f repository.Filter) (string, error) {
	field := "{" + f.Field + "}"

	if t, ok := f.Value.(time.Time); ok {
		lit := "DATETIME_PARSE('" + t.UTC().Format(time.RFC3339) + "')"
		switch f.Op {
		case repository.OpGte:
			return fmt.Sprintf("NOT(IS_BEFORE(%s, %s))", field, lit), nil
		case repository.OpEq:
			return fmt.Sprintf("IS_SAME(%s, %s)", field, lit), nil
		case repository.OpNeq:
			return fmt.Sprintf("NOT(IS_SAME(%s, %s))", field, lit), nil
		}
		return "", fmt.Errorf("unsupported operator %q for time value", f.Op)
	}

	lit, err := literal(f.Value)
	if err != nil {
		return "", fmt.Errorf("filter %s: %w", f.Field, err)
	}
	switch f.Op {
	case repository.OpEq, "":
		return field + " = " + lit, nil
	case repository.OpNeq:
		return field + " != " + lit, nil
	case repository.OpGte:
		return field + " >= " + lit, nil
	}
	return "", fmt.Errorf("unsupported operator %q", f.Op)
}

func literal(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return quote(x), nil
	case fmt.Stringer:
		return quote(x.String()), nil
	case bool:
		if x {
			return "TRUE()", nil
		}
		return "FALSE()", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case nil:
		return "BLANK()", nil
	}
	// Named string types such as domain statuses.
	if s, ok := asString(v); ok {
		return quote(s), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
