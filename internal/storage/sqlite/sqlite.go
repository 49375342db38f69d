// Package sqlite stores prediction history and the chat transcript in a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Skufu/medirisk/internal/chat"
	"github.com/Skufu/medirisk/internal/history"
	"github.com/Skufu/medirisk/internal/scoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    prediction_type TEXT NOT NULL,
    input_data TEXT NOT NULL,
    probability REAL NOT NULL,
    is_positive INTEGER NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_type ON predictions(prediction_type);
CREATE TABLE IF NOT EXISTS chat_messages (
    id INTEGER PRIMARY KEY,
    sender TEXT NOT NULL,
    content TEXT NOT NULL,
    timestamp DATETIME NOT NULL
);
`

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// History implements history.Store.
type History struct {
	db  *sql.DB
	now func() time.Time
}

func NewHistory(db *sql.DB) *History {
	return &History{db: db, now: time.Now}
}

func (h *History) Save(ctx context.Context, predictionType string, input json.RawMessage, result scoring.Result) (history.Record, error) {
	if len(input) == 0 {
		input = json.RawMessage("null")
	}
	createdAt := h.now().UTC()
	res, err := h.db.ExecContext(ctx,
		`INSERT INTO predictions (prediction_type, input_data, probability, is_positive, created_at) VALUES (?, ?, ?, ?, ?)`,
		predictionType, string(input), result.Probability, result.IsPositive, createdAt,
	)
	if err != nil {
		return history.Record{}, fmt.Errorf("insert prediction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return history.Record{}, fmt.Errorf("prediction id: %w", err)
	}
	return history.Record{
		ID:             id,
		PredictionType: predictionType,
		InputData:      append(json.RawMessage(nil), input...),
		Result:         result,
		CreatedAt:      createdAt,
	}, nil
}

func (h *History) All(ctx context.Context) ([]history.Record, error) {
	return h.query(ctx, `SELECT id, prediction_type, input_data, probability, is_positive, created_at
		FROM predictions ORDER BY id DESC`)
}

func (h *History) ByType(ctx context.Context, predictionType string) ([]history.Record, error) {
	return h.query(ctx, `SELECT id, prediction_type, input_data, probability, is_positive, created_at
		FROM predictions WHERE prediction_type = ? ORDER BY id DESC`, predictionType)
}

func (h *History) query(ctx context.Context, query string, args ...any) ([]history.Record, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	out := []history.Record{}
	for rows.Next() {
		var (
			rec   history.Record
			input string
		)
		if err := rows.Scan(&rec.ID, &rec.PredictionType, &input, &rec.Result.Probability, &rec.Result.IsPositive, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		rec.InputData = json.RawMessage(input)
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (h *History) Delete(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM predictions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", history.ErrNotFound, id)
	}
	return nil
}

// Transcript implements chat.Transcript.
type Transcript struct {
	db *sql.DB
}

// NewTranscript seeds the welcome message when the table is empty.
func NewTranscript(ctx context.Context, db *sql.DB) (*Transcript, error) {
	t := &Transcript{db: db}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_messages`).Scan(&n); err != nil {
		return nil, fmt.Errorf("count chat messages: %w", err)
	}
	if n == 0 {
		if err := t.Clear(ctx); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Transcript) Append(ctx context.Context, sender chat.Sender, content string, ts time.Time) (chat.Message, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return chat.Message{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM chat_messages`).Scan(&next); err != nil {
		return chat.Message{}, fmt.Errorf("next chat id: %w", err)
	}
	msg := chat.Message{ID: next, Sender: sender, Content: content, Timestamp: ts.UTC()}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, sender, content, timestamp) VALUES (?, ?, ?, ?)`,
		msg.ID, string(msg.Sender), msg.Content, msg.Timestamp,
	); err != nil {
		return chat.Message{}, fmt.Errorf("insert chat message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return chat.Message{}, fmt.Errorf("commit: %w", err)
	}
	return msg, nil
}

func (t *Transcript) All(ctx context.Context) ([]chat.Message, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT id, sender, content, timestamp FROM chat_messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	out := []chat.Message{}
	for rows.Next() {
		var (
			m      chat.Message
			sender string
		)
		if err := rows.Scan(&m.ID, &sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Sender = chat.Sender(sender)
		m.Timestamp = m.Timestamp.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *Transcript) Clear(ctx context.Context) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, sender, content, timestamp) VALUES (1, ?, ?, ?)`,
		string(chat.SenderBot), chat.WelcomeMessage, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("seed welcome message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
