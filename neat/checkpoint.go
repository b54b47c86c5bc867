package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// genomeSaveData holds the parts of a Genome written to a checkpoint.
// The config is not saved; it is reloaded from the original file.
type genomeSaveData struct {
	Nodes           map[int]*NodeGene
	Connections     map[ConnectionKey]*ConnectionGene
	Score           float64
	BirthGeneration int
}

// WriteGenome encodes g as gzip-compressed gob.
func WriteGenome(w io.Writer, g *Genome) error {
	gzWriter := gzip.NewWriter(w)
	data := genomeSaveData{
		Nodes:           g.Nodes,
		Connections:     g.Connections,
		Score:           g.Score(),
		BirthGeneration: g.BirthGeneration(),
	}
	if err := gob.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode genome: %w", err)
	}
	return gzWriter.Close()
}

// ReadGenome decodes a genome written by WriteGenome and binds it to config.
func ReadGenome(r io.Reader, config *GenomeConfig) (*Genome, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var data genomeSaveData
	if err := gob.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode genome: %w", err)
	}
	g := NewGenome(config)
	for k, n := range data.Nodes {
		g.Nodes[k] = n
	}
	for k, c := range data.Connections {
		g.Connections[k] = c
	}
	g.SetScore(data.Score)
	g.SetBirthGeneration(data.BirthGeneration)
	return g, nil
}

// SaveCheckpoint writes g to filePath.
func SaveCheckpoint(filePath string, g *Genome) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	if err := WriteGenome(file, g); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadCheckpoint reads a genome saved by SaveCheckpoint.
func LoadCheckpoint(filePath string, config *GenomeConfig) (*Genome, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()
	return ReadGenome(file, config)
}
