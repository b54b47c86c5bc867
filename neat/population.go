package neat

import (
	"fmt"
	"math/rand"

	"github.com/baldhumanity/evotrain/ea"
)

// NewPopulation creates an ea.Population of size random genomes with the
// initial topology of config. maxIndividualSize of 0 disables the size limit.
func NewPopulation(rng *rand.Rand, config *GenomeConfig, size, maxIndividualSize int) (*ea.Population, error) {
	pop, err := ea.NewPopulation(size, maxIndividualSize, Factory(config))
	if err != nil {
		return nil, err
	}
	err = pop.Fill(func(int) (ea.Genome, error) {
		return NewRandomGenome(rng, config)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create initial population: %w", err)
	}
	return pop, nil
}
