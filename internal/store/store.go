// Package store records recap runs in a SQLite database next to the
// generated files.
package store

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// FileName is the database written into the output directory.
const FileName = "recap.db"

// Store wraps the recap database.
type Store struct {
	db *sql.DB
}

// Run describes one analysis of an export file.
type Run struct {
	ID             string
	InputPath      string
	InputSize      int64
	InputModTime   time.Time
	Conversations  int
	Messages       int
	SkippedEntries int
	GeneratedAt    time.Time
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "creating store dir")
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, errors.Wrap(err, "opening store db")
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	return &Store{db: db}, nil
}

// OpenDir opens the database inside an output directory.
func OpenDir(dir string) (*Store, error) {
	return Open(filepath.Join(dir, FileName))
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Export records res as a new run. A blank run ID gets a fresh uuid, a zero
// GeneratedAt gets the current time; the stored run is returned.
func (s *Store) Export(ctx context.Context, run Run, res *model.AnalysisResult) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.GeneratedAt.IsZero() {
		run.GeneratedAt = time.Now().UTC()
	}
	run.Conversations = len(res.ConversationSummary)
	run.Messages = len(res.Messages)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, errors.Wrap(err, "beginning export")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, input_path, input_size, input_mtime, conversations, messages, skipped_entries, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, run.InputSize, formatTime(&run.InputModTime, time.RFC3339),
		run.Conversations, run.Messages, run.SkippedEntries, run.GeneratedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return run, errors.Wrap(err, "inserting run")
	}

	if err := insertMessages(ctx, tx, run.ID, res.Messages); err != nil {
		return run, err
	}
	if err := insertConversations(ctx, tx, run.ID, res.ConversationSummary); err != nil {
		return run, err
	}
	if err := insertDailyCounts(ctx, tx, run.ID, res.DailyMessageCounts); err != nil {
		return run, err
	}

	if err := tx.Commit(); err != nil {
		return run, errors.Wrap(err, "committing export")
	}
	return run, nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, runID string, msgs []model.FlatMessage) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO messages
		(run_id, conversation_index, conversation_id, message_id, role, create_time,
		 content_type, word_count, char_count, has_code, is_multimodal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing messages insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range msgs {
		_, err := stmt.ExecContext(ctx, runID, m.ConversationIndex, m.ConversationID, m.MessageID, m.Role,
			formatTime(m.CreateTime, time.RFC3339Nano), m.ContentType, m.WordCount, m.CharCount,
			boolInt(m.HasCode), boolInt(m.IsMultimodal))
		if err != nil {
			return errors.Wrapf(err, "inserting message %q", m.MessageID)
		}
	}
	return nil
}

func insertConversations(ctx context.Context, tx *sql.Tx, runID string, convs []model.ConversationSummary) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO conversations
		(run_id, conversation_index, conversation_id, title, first_time, last_time, duration_minutes,
		 messages, user_messages, assistant_messages, tool_messages, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing conversations insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range convs {
		var duration sql.NullFloat64
		if !math.IsNaN(c.DurationMinutes) {
			duration = sql.NullFloat64{Float64: c.DurationMinutes, Valid: true}
		}
		_, err := stmt.ExecContext(ctx, runID, c.ConversationIndex, c.ConversationID, c.ConversationTitle,
			formatTime(c.FirstTime, time.RFC3339Nano), formatTime(c.LastTime, time.RFC3339Nano), duration,
			c.Messages, c.UserMessages, c.AssistantMessages, c.ToolMessages, c.Category)
		if err != nil {
			return errors.Wrapf(err, "inserting conversation %d", c.ConversationIndex)
		}
	}
	return nil
}

func insertDailyCounts(ctx context.Context, tx *sql.Tx, runID string, days []model.DayCount) error {
	for _, d := range days {
		_, err := tx.ExecContext(ctx, `INSERT INTO daily_counts (run_id, date, messages) VALUES (?, ?, ?)`,
			runID, d.Date.UTC().Format(time.DateOnly), d.Messages)
		if err != nil {
			return errors.Wrapf(err, "inserting daily count %s", d.Date.Format(time.DateOnly))
		}
	}
	return nil
}

// ListRuns returns recorded runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, input_path, input_size, input_mtime, conversations, messages, skipped_entries, generated_at
		FROM runs ORDER BY generated_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var mtime sql.NullString
		var generated string
		if err := rows.Scan(&r.ID, &r.InputPath, &r.InputSize, &mtime, &r.Conversations,
			&r.Messages, &r.SkippedEntries, &generated); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		if mtime.Valid && mtime.String != "" {
			r.InputModTime, _ = time.Parse(time.RFC3339, mtime.String)
		}
		r.GeneratedAt, _ = time.Parse(time.RFC3339, generated)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DailyCounts reads back the per-day message counts of a run.
func (s *Store) DailyCounts(ctx context.Context, runID string) ([]model.DayCount, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, messages FROM daily_counts WHERE run_id = ? ORDER BY date", runID)
	if err != nil {
		return nil, errors.Wrapf(err, "reading daily counts of %s", runID)
	}
	defer func() { _ = rows.Close() }()

	var out []model.DayCount
	for rows.Next() {
		var date string
		var d model.DayCount
		if err := rows.Scan(&date, &d.Messages); err != nil {
			return nil, errors.Wrap(err, "scanning daily count")
		}
		d.Date, err = time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing date %q", date)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MessageCount returns the number of stored messages of a run.
func (s *Store) MessageCount(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages WHERE run_id = ?", runID).Scan(&count)
	return count, err
}

// DeleteRun removes a run and everything recorded with it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID)
	return err
}

func formatTime(t *time.Time, layout string) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(layout)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
