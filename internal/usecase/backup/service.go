// Package backup streams the scheduler's tables to and from NDJSON dumps.
// The format is one JSON record per line: a meta header followed by one
// record per row, keyed by table name.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite driver, used for offline copies
)

const formatVersion = 1

var errNoTablesSelected = errors.New("backup: no tables selected")

// table describes one exported table: its name and column order. Columns are
// listed explicitly so a dump stays readable and stable across schema
// additions.
type table struct {
	name    string
	columns []string
}

var allTables = []table{
	{"learning_items", []string{
		"id", "term", "translation", "language", "difficulty",
		"complexity_article", "complexity_phonetic", "complexity_compound", "complexity_case",
		"created_at",
	}},
	{"progress_records", []string{
		"id", "learner_id", "item_id", "tier", "correct_attempts", "total_attempts",
		"ease_factor", "repetitions", "interval_days", "lapse_count", "streak",
		"last_seen_at", "next_review_at", "version", "created_at", "updated_at",
	}},
	{"attempt_records", []string{
		"id", "learner_id", "item_id", "session_id", "correct",
		"response_time_ms", "hints_used", "exercise", "created_at",
	}},
	{"mistake_records", []string{
		"id", "attempt_id", "learner_id", "item_id", "mistake_type",
		"severity", "correct_answer", "given_answer", "created_at",
	}},
}

// Service streams table contents to and from NDJSON over database/sql, so the
// same dump moves between the production PostgreSQL and offline SQLite copies.
type Service struct {
	driver string
	dsn    string
}

// NewService constructs a backup service bound to the provided database driver and DSN.
func NewService(driver, dsn string) (*Service, error) {
	driver = strings.TrimSpace(strings.ToLower(driver))
	if driver != "postgres" && driver != "sqlite3" {
		return nil, fmt.Errorf("backup: unsupported driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("backup: DSN is required")
	}
	return &Service{driver: driver, dsn: dsn}, nil
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Export writes the selected tables (all when none are named) as NDJSON.
func (s *Service) Export(ctx context.Context, w io.Writer, only ...string) error {
	tables, err := selectTables(only)
	if err != nil {
		return err
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	writer := bufio.NewWriter(w)
	now := time.Now().UTC()
	if err := writeRecord(writer, record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		Tables:     tableNames(tables),
	}); err != nil {
		return err
	}

	for _, tbl := range tables {
		if err := s.exportTable(ctx, db, tbl, writer); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// Restore loads an NDJSON dump into the database. Selected tables are cleared
// first, so a restore is idempotent; everything runs in one transaction.
func (s *Service) Restore(ctx context.Context, r io.Reader, only ...string) error {
	tables, err := selectTables(only)
	if err != nil {
		return err
	}
	byName := make(map[string]table, len(tables))
	for _, tbl := range tables {
		byName[tbl.name] = tbl
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Clear children before parents.
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tables[i].name); err != nil {
			return fmt.Errorf("clear table %s: %w", tables[i].name, err)
		}
	}

	reader := bufio.NewReader(r)
	metaSeen := false
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read backup: %w", err)
		}
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			var rec record
			if err := json.Unmarshal(trimmed, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			switch rec.Type {
			case "meta":
				if rec.Version != formatVersion {
					return fmt.Errorf("backup: unsupported format version %d", rec.Version)
				}
				metaSeen = true
			default:
				tbl, ok := byName[rec.Type]
				if !ok {
					break // not selected for restore
				}
				if rec.Payload == nil {
					return fmt.Errorf("backup: missing payload for table %s", rec.Type)
				}
				if err := s.insertRow(ctx, tx, tbl, rec.Payload); err != nil {
					return err
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	if !metaSeen {
		return errors.New("backup: missing meta record")
	}

	if s.driver == "postgres" {
		for _, tbl := range tables {
			if err := resetSequence(ctx, tx, tbl.name); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	committed = true
	return nil
}

func (s *Service) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (s *Service) exportTable(ctx context.Context, db *sql.DB, tbl table, writer *bufio.Writer) error {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(tbl.columns, ", "), tbl.name)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("export table %s: %w", tbl.name, err)
	}
	defer rows.Close()

	values := make([]any, len(tbl.columns))
	scanTargets := make([]any, len(tbl.columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return fmt.Errorf("scan %s row: %w", tbl.name, err)
		}
		payload := make(map[string]any, len(tbl.columns))
		for i, column := range tbl.columns {
			payload[column] = normalizeValue(values[i])
		}
		if err := writeRecord(writer, record{Type: tbl.name, Payload: payload}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Service) insertRow(ctx context.Context, tx *sql.Tx, tbl table, payload map[string]any) error {
	args := make([]any, len(tbl.columns))
	for i, column := range tbl.columns {
		args[i] = payload[column]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl.name, strings.Join(tbl.columns, ", "), s.placeholders(len(tbl.columns)))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("restore %s row: %w", tbl.name, err)
	}
	return nil
}

func (s *Service) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if s.driver == "postgres" {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

func resetSequence(ctx context.Context, tx *sql.Tx, name string) error {
	query := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s",
		name, name)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("reset sequence for %s: %w", name, err)
	}
	return nil
}

// normalizeValue keeps dumps portable: byte slices become strings and
// timestamps are pinned to UTC.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case []byte:
		return string(value)
	case time.Time:
		return value.UTC()
	default:
		return v
	}
}

func writeRecord(writer *bufio.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return err
	}
	return writer.WriteByte('\n')
}

func selectTables(only []string) ([]table, error) {
	if len(only) == 0 {
		return allTables, nil
	}
	requested := make(map[string]bool, len(only))
	for _, name := range only {
		requested[strings.TrimSpace(name)] = true
	}
	var selected []table
	for _, tbl := range allTables {
		if requested[tbl.name] {
			selected = append(selected, tbl)
			delete(requested, tbl.name)
		}
	}
	if len(requested) > 0 {
		unknown := make([]string, 0, len(requested))
		for name := range requested {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("backup: unknown tables: %s", strings.Join(unknown, ", "))
	}
	if len(selected) == 0 {
		return nil, errNoTablesSelected
	}
	return selected, nil
}

func tableNames(tables []table) []string {
	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.name
	}
	return names
}
