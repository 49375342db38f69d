// Package history keeps the record of past predictions.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Skufu/medirisk/internal/scoring"
)

var ErrNotFound = errors.New("history: record not found")

// Record is one saved prediction. InputData is stored as supplied.
type Record struct {
	ID             int64           `json:"id"`
	PredictionType string          `json:"prediction_type"`
	InputData      json.RawMessage `json:"input_data"`
	Result         scoring.Result  `json:"result"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Store persists prediction records. IDs increase strictly and are never
// reused; listings are newest first.
type Store interface {
	Save(ctx context.Context, predictionType string, input json.RawMessage, result scoring.Result) (Record, error)
	All(ctx context.Context) ([]Record, error)
	ByType(ctx context.Context, predictionType string) ([]Record, error)
	Delete(ctx context.Context, id int64) error
}
