package filterexpr

import (
	"strings"
	"testing"
	"time"
)

func testSchema() Schema {
	return Schema{
		Fields: map[string]Field{
			"tier":       {Column: "tier", Kind: KindString, Ops: []Op{OpEQ}},
			"streak":     {Column: "streak", Kind: KindNumber, Ops: []Op{OpGTE, OpLTE}},
			"due_before": {Column: "next_review_at", Kind: KindTimestamp, Ops: []Op{OpLTE}},
			"term":       {Column: "term", Kind: KindString, Ops: []Op{OpEQ, OpSW}},
		},
		Order: map[string]OrderField{
			"next_review_at": {Column: "next_review_at", Nulls: "FIRST"},
			"streak":         {Column: "streak"},
			"id":             {Column: "id"},
		},
		DefaultOrder: "next_review_at",
		TieBreak:     "id",
	}
}

func TestParseFilterEmpty(t *testing.T) {
	preds, err := ParseFilter("   ", testSchema())
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if len(preds) != 0 {
		t.Errorf("expected no predicates, got %+v", preds)
	}
}

func TestParseFilterConjunction(t *testing.T) {
	preds, err := ParseFilter(`tier == "mastered" && streak >= 3 && due_before <= timestamp("2024-03-01T00:00:00Z")`, testSchema())
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("predicates = %d, want 3", len(preds))
	}
	if preds[0].Column != "tier" || preds[0].Op != OpEQ || preds[0].Value != "mastered" {
		t.Errorf("predicate 0 = %+v", preds[0])
	}
	if preds[1].Column != "streak" || preds[1].Op != OpGTE || preds[1].Value != float64(3) {
		t.Errorf("predicate 1 = %+v", preds[1])
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if ts, ok := preds[2].Value.(time.Time); !ok || !ts.Equal(want) {
		t.Errorf("predicate 2 = %+v, want timestamp %v", preds[2], want)
	}
	if preds[2].Column != "next_review_at" {
		t.Errorf("due_before should map to next_review_at, got %q", preds[2].Column)
	}
}

func TestParseFilterStartsWith(t *testing.T) {
	preds, err := ParseFilter(`term.startsWith("Kat")`, testSchema())
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if len(preds) != 1 || preds[0].Op != OpSW || preds[0].Value != "Kat" {
		t.Errorf("predicates = %+v", preds)
	}
}

func TestParseFilterRejections(t *testing.T) {
	cases := []struct {
		name   string
		filter string
		want   string
	}{
		{"or operator", `tier == "mastered" || streak >= 3`, "only AND is allowed"},
		{"unknown field", `color == "red"`, "not filterable"},
		{"disallowed op", `tier >= "mastered"`, "not allowed for field"},
		{"wrong literal kind", `streak == "three"`, ""},
		{"bare identifier", `tier`, ""},
		{"bad timestamp", `due_before <= timestamp("yesterday")`, "not RFC3339"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFilter(tc.filter, testSchema())
			if err == nil {
				t.Fatalf("ParseFilter(%q) succeeded, want error", tc.filter)
			}
			if tc.want != "" && !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestParseOrderDefault(t *testing.T) {
	clause, err := ParseOrder("", testSchema())
	if err != nil {
		t.Fatalf("ParseOrder: %v", err)
	}
	if clause != "next_review_at ASC NULLS FIRST, id ASC" {
		t.Errorf("clause = %q", clause)
	}
}

func TestParseOrderExplicit(t *testing.T) {
	clause, err := ParseOrder("streak desc, next_review_at", testSchema())
	if err != nil {
		t.Fatalf("ParseOrder: %v", err)
	}
	if clause != "streak DESC, next_review_at ASC NULLS FIRST, id ASC" {
		t.Errorf("clause = %q", clause)
	}
}

func TestParseOrderTieBreakNotDuplicated(t *testing.T) {
	clause, err := ParseOrder("id desc", testSchema())
	if err != nil {
		t.Fatalf("ParseOrder: %v", err)
	}
	if clause != "id DESC" {
		t.Errorf("clause = %q", clause)
	}
}

func TestParseOrderRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown key", "color"},
		{"bad direction", "streak upward"},
		{"duplicate key", "streak, streak desc"},
		{"too many keys", "streak, next_review_at, id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseOrder(tc.raw, testSchema()); err == nil {
				t.Errorf("ParseOrder(%q) succeeded, want error", tc.raw)
			}
		})
	}
}
