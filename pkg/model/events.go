package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event subjects published to NATS.
const (
	SubjectDatasetReloaded   = "evt.dataset.reloaded.v1"
	SubjectForecastCompleted = "evt.forecast.completed.v1"
)

// Envelope is the canonical wrapper for every published event.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// DatasetReloadedEvent announces a fresh dataset snapshot.
type DatasetReloadedEvent struct {
	Source      Source    `json:"source"`
	Path        string    `json:"path"`
	Records     int       `json:"records"`
	RowsDropped int       `json:"rows_dropped"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// ForecastCompletedEvent announces a finished training run.
type ForecastCompletedEvent struct {
	RowsProcessed     int       `json:"rows_processed"`
	UniqueCommodities int       `json:"unique_commodities"`
	MAE               float64   `json:"mae"`
	RMSE              float64   `json:"rmse"`
	ArtifactsDir      string    `json:"artifacts_dir"`
	CompletedAt       time.Time `json:"completed_at"`
}
