package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/medirisk/internal/chat"
	"github.com/Skufu/medirisk/internal/history"
	"github.com/Skufu/medirisk/internal/scoring"
	"github.com/Skufu/medirisk/internal/storage/sqlite"
)

func openTestDB(t *testing.T) (context.Context, *sqlite.History, *sqlite.Transcript) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tr, err := sqlite.NewTranscript(ctx, db)
	require.NoError(t, err)
	return ctx, sqlite.NewHistory(db), tr
}

func TestHistory_RoundTrip(t *testing.T) {
	ctx, h, _ := openTestDB(t)

	first, err := h.Save(ctx, "diabetes", json.RawMessage(`{"glucose":150,"gender":"female"}`), scoring.Result{Probability: 0.12})
	require.NoError(t, err)
	second, err := h.Save(ctx, "heart", json.RawMessage(`{"age":61}`), scoring.Result{Probability: 0.45, IsPositive: true})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	all, err := h.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.True(t, all[0].Result.IsPositive)
	assert.InDelta(t, 0.45, all[0].Result.Probability, 1e-12)
	assert.JSONEq(t, `{"glucose":150,"gender":"female"}`, string(all[1].InputData))
	assert.WithinDuration(t, first.CreatedAt, all[1].CreatedAt, time.Second)

	hearts, err := h.ByType(ctx, "heart")
	require.NoError(t, err)
	require.Len(t, hearts, 1)
	assert.Equal(t, second.ID, hearts[0].ID)
}

func TestHistory_DeleteAndIDs(t *testing.T) {
	ctx, h, _ := openTestDB(t)

	a, _ := h.Save(ctx, "lung", nil, scoring.Result{})
	require.NoError(t, h.Delete(ctx, a.ID))
	assert.ErrorIs(t, h.Delete(ctx, a.ID), history.ErrNotFound)

	b, err := h.Save(ctx, "lung", nil, scoring.Result{})
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)

	all, _ := h.All(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "null", string(all[0].InputData))
}

func TestTranscript_SeedAppendClear(t *testing.T) {
	ctx, _, tr := openTestDB(t)

	msgs, err := tr.All(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.WelcomeMessage, msgs[0].Content)
	assert.Equal(t, chat.SenderBot, msgs[0].Sender)

	m, err := tr.Append(ctx, chat.SenderUser, "hello", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.ID)

	msgs, _ = tr.All(ctx)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.SenderUser, msgs[1].Sender)

	require.NoError(t, tr.Clear(ctx))
	msgs, _ = tr.All(ctx)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(1), msgs[0].ID)
}

func TestTranscript_ReopenKeepsMessages(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.db")

	db, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	tr, err := sqlite.NewTranscript(ctx, db)
	require.NoError(t, err)
	_, err = tr.Append(ctx, chat.SenderUser, "remember me", time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	tr, err = sqlite.NewTranscript(ctx, db)
	require.NoError(t, err)

	msgs, err := tr.All(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "remember me", msgs[1].Content)
}

var (
	_ history.Store   = (*sqlite.History)(nil)
	_ chat.Transcript = (*sqlite.Transcript)(nil)
)
