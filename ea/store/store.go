// Package store persists the history of training runs: one record per run
// and one record per completed generation.
package store

import (
	"context"
	"time"

	"github.com/baldhumanity/evotrain/ea"
	"github.com/google/uuid"
)

// Store defines the persistence operations for run history. Every Store is
// also an ea.HistoryRecorder.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	RecordGeneration(ctx context.Context, rec ea.GenerationRecord) error
	ListGenerations(ctx context.Context, runID string) ([]ea.GenerationRecord, error)
}

// VersionedRecord tags stored payloads so readers can reject formats they
// do not understand.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Run describes one training run.
type Run struct {
	VersionedRecord
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Config    ea.Config `json:"config"`
}

// NewRun creates a run record with a fresh identifier.
func NewRun(label string, cfg *ea.Config) Run {
	run := Run{
		VersionedRecord: currentVersion(),
		ID:              uuid.NewString(),
		Label:           label,
		StartedAt:       time.Now().UTC(),
	}
	if cfg != nil {
		run.Config = *cfg
	}
	return run
}

func currentVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

var _ ea.HistoryRecorder = Store(nil)
