package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/baldhumanity/evotrain/ea"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// generationPayload is the stored form of ea.GenerationRecord.
type generationPayload struct {
	VersionedRecord
	RunID        string    `json:"run_id"`
	Generation   int       `json:"generation"`
	BestScore    statValue `json:"best_score"`
	MeanScore    statValue `json:"mean_score"`
	StdevScore   statValue `json:"stdev_score"`
	MedianScore  statValue `json:"median_score"`
	SpeciesCount int       `json:"species_count"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// statValue is a float64 that survives JSON when it is not finite. JSON has
// no NaN or infinity, so those are written as the strings "NaN", "+Inf" and
// "-Inf". A null reads back as NaN.
type statValue float64

func (v statValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(f)
}

func (v *statValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = statValue(math.NaN())
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*v = statValue(math.NaN())
		case "+Inf", "Inf":
			*v = statValue(math.Inf(1))
		case "-Inf":
			*v = statValue(math.Inf(-1))
		default:
			return fmt.Errorf("invalid statistic %q", s)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = statValue(f)
	return nil
}

func EncodeRun(run Run) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return Run{}, err
	}
	return run, nil
}

func EncodeGeneration(rec ea.GenerationRecord) ([]byte, error) {
	return json.Marshal(generationPayload{
		VersionedRecord: currentVersion(),
		RunID:           rec.RunID,
		Generation:      rec.Generation,
		BestScore:       statValue(rec.BestScore),
		MeanScore:       statValue(rec.MeanScore),
		StdevScore:      statValue(rec.StdevScore),
		MedianScore:     statValue(rec.MedianScore),
		SpeciesCount:    rec.SpeciesCount,
		RecordedAt:      rec.RecordedAt,
	})
}

func DecodeGeneration(data []byte) (ea.GenerationRecord, error) {
	var p generationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ea.GenerationRecord{}, err
	}
	if err := checkVersion(p.VersionedRecord); err != nil {
		return ea.GenerationRecord{}, err
	}
	return ea.GenerationRecord{
		RunID:        p.RunID,
		Generation:   p.Generation,
		BestScore:    float64(p.BestScore),
		MeanScore:    float64(p.MeanScore),
		StdevScore:   float64(p.StdevScore),
		MedianScore:  float64(p.MedianScore),
		SpeciesCount: p.SpeciesCount,
		RecordedAt:   p.RecordedAt,
	}, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
