package filterexpr

import (
	"errors"
	"fmt"
	"strings"
)

// OrderField maps an order_by key to a SQL expression and optional NULLS
// placement ("FIRST" or "LAST").
type OrderField struct {
	Column string
	Nulls  string
}

// ParseOrder validates the order_by string against the schema and renders the
// ORDER BY clause body. Up to two keys are accepted; the schema's tie-break
// key is appended when not already present so the ordering is total.
func ParseOrder(raw string, schema Schema) (string, error) {
	if len(schema.Order) == 0 {
		return "", errors.New("schema has no orderable fields")
	}
	if _, ok := schema.Order[schema.TieBreak]; !ok {
		return "", fmt.Errorf("tie-break key %q missing from order fields", schema.TieBreak)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = schema.DefaultOrder
	}

	var clauses []string
	used := make(map[string]struct{})
	for _, segment := range strings.Split(raw, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		parts := strings.Fields(segment)
		key := parts[0]
		field, ok := schema.Order[key]
		if !ok {
			return "", fmt.Errorf("field %q cannot be used for ordering", key)
		}
		if _, dup := used[key]; dup {
			return "", fmt.Errorf("duplicate order key %q", key)
		}

		direction := "ASC"
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				direction = "DESC"
			default:
				return "", fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		default:
			return "", fmt.Errorf("invalid order segment %q", segment)
		}
		if len(used) == 2 {
			return "", errors.New("order_by supports at most two keys")
		}

		used[key] = struct{}{}
		clauses = append(clauses, renderOrder(field, direction))
	}

	if _, ok := used[schema.TieBreak]; !ok {
		clauses = append(clauses, renderOrder(schema.Order[schema.TieBreak], "ASC"))
	}
	return strings.Join(clauses, ", "), nil
}

func renderOrder(field OrderField, direction string) string {
	clause := field.Column + " " + direction
	if field.Nulls != "" {
		clause += " NULLS " + field.Nulls
	}
	return clause
}
