// Package postgres stores prediction history and the chat transcript in
// PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/medirisk/internal/chat"
	"github.com/Skufu/medirisk/internal/history"
	"github.com/Skufu/medirisk/internal/scoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id BIGSERIAL PRIMARY KEY,
	prediction_type TEXT NOT NULL,
	input_data JSON NOT NULL,
	probability DOUBLE PRECISION NOT NULL,
	is_positive BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_type ON predictions (prediction_type);
CREATE TABLE IF NOT EXISTS chat_messages (
	id BIGINT PRIMARY KEY,
	sender TEXT NOT NULL,
	content TEXT NOT NULL,
	sent_at TIMESTAMPTZ NOT NULL
);
`

// chatLockKey serialises id assignment in chat_messages.
const chatLockKey = 0x6d656469

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: apply schema: %w", err)
	}
	return nil
}

// History implements history.Store.
type History struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool, now: time.Now}
}

func (h *History) Save(ctx context.Context, predictionType string, input json.RawMessage, result scoring.Result) (history.Record, error) {
	if len(input) == 0 {
		input = json.RawMessage("null")
	}
	rec := history.Record{
		PredictionType: predictionType,
		InputData:      append(json.RawMessage(nil), input...),
		Result:         result,
		CreatedAt:      h.now().UTC().Truncate(time.Microsecond),
	}
	err := h.pool.QueryRow(ctx,
		`INSERT INTO predictions (prediction_type, input_data, probability, is_positive, created_at)
		VALUES ($1, $2::json, $3, $4, $5) RETURNING id`,
		predictionType, string(input), result.Probability, result.IsPositive, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return history.Record{}, fmt.Errorf("failed to save prediction: %w", err)
	}
	return rec, nil
}

func (h *History) All(ctx context.Context) ([]history.Record, error) {
	return h.query(ctx, `SELECT id, prediction_type, input_data, probability, is_positive, created_at
		FROM predictions ORDER BY id DESC`)
}

func (h *History) ByType(ctx context.Context, predictionType string) ([]history.Record, error) {
	return h.query(ctx, `SELECT id, prediction_type, input_data, probability, is_positive, created_at
		FROM predictions WHERE prediction_type = $1 ORDER BY id DESC`, predictionType)
}

func (h *History) query(ctx context.Context, query string, args ...any) ([]history.Record, error) {
	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	out := []history.Record{}
	for rows.Next() {
		var (
			rec   history.Record
			input []byte
		)
		if err := rows.Scan(&rec.ID, &rec.PredictionType, &input, &rec.Result.Probability, &rec.Result.IsPositive, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		rec.InputData = json.RawMessage(input)
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	return out, nil
}

func (h *History) Delete(ctx context.Context, id int64) error {
	tag, err := h.pool.Exec(ctx, `DELETE FROM predictions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", history.ErrNotFound, id)
	}
	return nil
}

// Transcript implements chat.Transcript.
type Transcript struct {
	pool *pgxpool.Pool
}

// NewTranscript seeds the welcome message when the table is empty.
func NewTranscript(ctx context.Context, pool *pgxpool.Pool) (*Transcript, error) {
	t := &Transcript{pool: pool}
	var n int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_messages`).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to count chat messages: %w", err)
	}
	if n == 0 {
		if err := t.Clear(ctx); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Transcript) Append(ctx context.Context, sender chat.Sender, content string, ts time.Time) (chat.Message, error) {
	msg := chat.Message{Sender: sender, Content: content, Timestamp: ts.UTC().Truncate(time.Microsecond)}
	err := pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, chatLockKey); err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			`INSERT INTO chat_messages (id, sender, content, sent_at)
			SELECT COALESCE(MAX(id), 0) + 1, $1::text, $2::text, $3::timestamptz FROM chat_messages
			RETURNING id`,
			string(sender), content, msg.Timestamp,
		).Scan(&msg.ID)
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("failed to save chat message: %w", err)
	}
	return msg, nil
}

func (t *Transcript) All(ctx context.Context) ([]chat.Message, error) {
	rows, err := t.pool.Query(ctx, `SELECT id, sender, content, sent_at FROM chat_messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chat.Message, error) {
		var (
			m      chat.Message
			sender string
		)
		err := row.Scan(&m.ID, &sender, &m.Content, &m.Timestamp)
		m.Sender = chat.Sender(sender)
		m.Timestamp = m.Timestamp.UTC()
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat messages: %w", err)
	}
	return msgs, nil
}

func (t *Transcript) Clear(ctx context.Context) error {
	err := pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, chatLockKey); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM chat_messages`); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO chat_messages (id, sender, content, sent_at) VALUES (1, $1, $2, $3)`,
			string(chat.SenderBot), chat.WelcomeMessage, time.Now().UTC(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear chat messages: %w", err)
	}
	return nil
}
