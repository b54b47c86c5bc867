package ea

import (
	"context"
	"time"
)

// GenerationRecord is the persisted summary of one generation of a run.
type GenerationRecord struct {
	RunID        string    `json:"run_id"`
	Generation   int       `json:"generation"`
	BestScore    float64   `json:"best_score"`
	MeanScore    float64   `json:"mean_score"`
	StdevScore   float64   `json:"stdev_score"`
	MedianScore  float64   `json:"median_score"`
	SpeciesCount int       `json:"species_count"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// HistoryRecorder persists generation records. The store package provides
// memory and sqlite implementations.
type HistoryRecorder interface {
	RecordGeneration(ctx context.Context, rec GenerationRecord) error
}

// NewGenerationRecord builds the record of stats for run.
func NewGenerationRecord(runID string, stats GenerationStats) GenerationRecord {
	return GenerationRecord{
		RunID:        runID,
		Generation:   stats.Generation,
		BestScore:    stats.BestScore,
		MeanScore:    stats.MeanScore,
		StdevScore:   stats.StdevScore,
		MedianScore:  stats.MedianScore,
		SpeciesCount: stats.SpeciesCount,
		RecordedAt:   time.Now().UTC(),
	}
}
