/*
Copyright © 2025 eslsoft

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/wordpace/internal/infrastructure/config"
	infraDB "github.com/eslsoft/wordpace/internal/infrastructure/database"
)

// dbInitCmd creates the scheduler tables and indexes
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		pool, cleanup, err := infraDB.NewConnection(cfg)
		if err != nil {
			if cleanup != nil {
				cleanup()
			}
			return fmt.Errorf("db connect: %w", err)
		}
		defer cleanup()

		for _, stmt := range schemaStatements() {
			if _, err := pool.Exec(cmd.Context(), stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		cmd.Println("schema applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS learning_items (
	id BIGSERIAL PRIMARY KEY,
	term TEXT NOT NULL,
	translation TEXT NOT NULL,
	language TEXT NOT NULL,
	difficulty TEXT NOT NULL DEFAULT 'beginner',
	complexity_article DOUBLE PRECISION NOT NULL DEFAULT 0,
	complexity_phonetic DOUBLE PRECISION NOT NULL DEFAULT 0,
	complexity_compound DOUBLE PRECISION NOT NULL DEFAULT 0,
	complexity_case DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_learning_items_term_language
	ON learning_items (lower(term), language);

CREATE TABLE IF NOT EXISTS progress_records (
	id BIGSERIAL PRIMARY KEY,
	learner_id BIGINT NOT NULL,
	item_id BIGINT NOT NULL REFERENCES learning_items (id),
	tier TEXT NOT NULL DEFAULT 'not_learned',
	correct_attempts INTEGER NOT NULL DEFAULT 0,
	total_attempts INTEGER NOT NULL DEFAULT 0,
	ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
	repetitions INTEGER NOT NULL DEFAULT 0,
	interval_days INTEGER NOT NULL DEFAULT 1,
	lapse_count INTEGER NOT NULL DEFAULT 0,
	streak INTEGER NOT NULL DEFAULT 0,
	last_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	next_review_at TIMESTAMPTZ,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (learner_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_progress_records_due
	ON progress_records (learner_id, next_review_at);

CREATE TABLE IF NOT EXISTS attempt_records (
	id BIGSERIAL PRIMARY KEY,
	learner_id BIGINT NOT NULL,
	item_id BIGINT NOT NULL REFERENCES learning_items (id),
	session_id TEXT NOT NULL DEFAULT '',
	correct BOOLEAN NOT NULL,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	hints_used INTEGER NOT NULL DEFAULT 0,
	exercise TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_attempt_records_learner_created
	ON attempt_records (learner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS mistake_records (
	id BIGSERIAL PRIMARY KEY,
	attempt_id BIGINT NOT NULL REFERENCES attempt_records (id),
	learner_id BIGINT NOT NULL,
	item_id BIGINT NOT NULL REFERENCES learning_items (id),
	mistake_type TEXT NOT NULL,
	severity DOUBLE PRECISION NOT NULL DEFAULT 0,
	correct_answer TEXT NOT NULL DEFAULT '',
	given_answer TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_mistake_records_attempt
	ON mistake_records (attempt_id);
`

// schemaStatements splits the schema into single statements because the pool
// executes over the extended protocol.
func schemaStatements() []string {
	var statements []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
