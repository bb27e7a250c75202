package repository

import (
	"fmt"
	"strings"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
	"github.com/eslsoft/wordpace/pkg/filterexpr"
)

// Filter and order whitelists for the list endpoints. Only fields named here
// ever reach a SQL clause.

func itemSchema() filterexpr.Schema {
	return filterexpr.Schema{
		Fields: map[string]filterexpr.Field{
			"term":       {Column: "term", Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpSW}},
			"difficulty": {Column: "difficulty", Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ}},
			"created_at": {Column: "created_at", Kind: filterexpr.KindTimestamp, Ops: []filterexpr.Op{filterexpr.OpGTE, filterexpr.OpLTE}},
		},
		Order: map[string]filterexpr.OrderField{
			"term":       {Column: "term"},
			"created_at": {Column: "created_at"},
			"id":         {Column: "id"},
		},
		DefaultOrder: "id",
		TieBreak:     "id",
	}
}

func progressSchema() filterexpr.Schema {
	return filterexpr.Schema{
		Fields: map[string]filterexpr.Field{
			"tier":       {Column: "tier", Kind: filterexpr.KindString, Ops: []filterexpr.Op{filterexpr.OpEQ}},
			"streak":     {Column: "streak", Kind: filterexpr.KindNumber, Ops: []filterexpr.Op{filterexpr.OpGTE, filterexpr.OpLTE}},
			"due_before": {Column: "next_review_at", Kind: filterexpr.KindTimestamp, Ops: []filterexpr.Op{filterexpr.OpLTE}},
			"updated_at": {Column: "updated_at", Kind: filterexpr.KindTimestamp, Ops: []filterexpr.Op{filterexpr.OpGTE, filterexpr.OpLTE}},
		},
		Order: map[string]filterexpr.OrderField{
			"next_review_at": {Column: "next_review_at", Nulls: "FIRST"},
			"tier":           {Column: "tier"},
			"streak":         {Column: "streak"},
			"updated_at":     {Column: "updated_at"},
			"item_id":        {Column: "item_id"},
		},
		DefaultOrder: "next_review_at",
		TieBreak:     "item_id",
	}
}

// buildWhere turns the request filter into SQL conditions with positional
// args. Conditions are numbered from the current length of args.
func buildWhere(filter string, schema filterexpr.Schema) ([]string, []any, error) {
	predicates, err := filterexpr.ParseFilter(filter, schema)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", entity.ErrInvalidFilter, err)
	}
	var (
		conds []string
		args  []any
	)
	for _, pred := range predicates {
		switch pred.Op {
		case filterexpr.OpEQ:
			args = append(args, pred.Value)
			conds = append(conds, fmt.Sprintf("%s = $%d", pred.Column, len(args)))
		case filterexpr.OpGTE:
			args = append(args, pred.Value)
			conds = append(conds, fmt.Sprintf("%s >= $%d", pred.Column, len(args)))
		case filterexpr.OpLTE:
			args = append(args, pred.Value)
			conds = append(conds, fmt.Sprintf("%s <= $%d", pred.Column, len(args)))
		case filterexpr.OpSW:
			args = append(args, likePrefix(pred.Value.(string)))
			conds = append(conds, fmt.Sprintf("%s LIKE $%d", pred.Column, len(args)))
		default:
			return nil, nil, fmt.Errorf("operator %q has no SQL rendering", string(pred.Op))
		}
	}
	return conds, args, nil
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(prefix)
	return escaped + "%"
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func parseOrder(raw string, schema filterexpr.Schema) (string, error) {
	clause, err := filterexpr.ParseOrder(raw, schema)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidFilter, err)
	}
	return clause, nil
}

// limitOffset appends LIMIT/OFFSET args and returns the SQL fragment. A zero
// page size means no pagination.
func limitOffset(args *[]any, p repository.Pagination) string {
	if p.PageSize <= 0 {
		return ""
	}
	if p.PageNo <= 0 {
		p.PageNo = 1
	}
	*args = append(*args, p.PageSize)
	limit := len(*args)
	*args = append(*args, p.Offset())
	offset := len(*args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", limit, offset)
}
