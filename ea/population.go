package ea

import (
	"fmt"
)

// Population holds the genome slots a trainer evolves. Slots are created once
// and afterwards only overwritten in place by the trainer's locked section.
type Population struct {
	genomes           []Genome
	maxSize           int
	maxIndividualSize int
	factory           GenomeFactory
}

// NewPopulation creates an empty population with a fixed capacity.
// maxIndividualSize of 0 disables the size limit.
func NewPopulation(maxSize, maxIndividualSize int, factory GenomeFactory) (*Population, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0", ErrConfiguration)
	}
	if maxIndividualSize < 0 {
		return nil, fmt.Errorf("%w: max individual size must be >= 0", ErrConfiguration)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: genome factory is required", ErrConfiguration)
	}
	return &Population{
		genomes:           make([]Genome, 0, maxSize),
		maxSize:           maxSize,
		maxIndividualSize: maxIndividualSize,
		factory:           factory,
	}, nil
}

// Add appends a genome while the population is being seeded.
func (p *Population) Add(g Genome) error {
	if g == nil {
		return fmt.Errorf("genome is required")
	}
	if len(p.genomes) >= p.maxSize {
		return fmt.Errorf("population is full (%d genomes)", p.maxSize)
	}
	if !p.fits(g) {
		return fmt.Errorf("%w: genome size %d > %d", ErrSizeViolation, g.Size(), p.maxIndividualSize)
	}
	p.genomes = append(p.genomes, g)
	return nil
}

// Fill seeds the remaining capacity with genomes produced by create.
func (p *Population) Fill(create func(index int) (Genome, error)) error {
	for i := len(p.genomes); i < p.maxSize; i++ {
		g, err := create(i)
		if err != nil {
			return fmt.Errorf("create genome %d: %w", i, err)
		}
		if err := p.Add(g); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of genomes currently held.
func (p *Population) Size() int {
	return len(p.genomes)
}

func (p *Population) MaxSize() int {
	return p.maxSize
}

func (p *Population) MaxIndividualSize() int {
	return p.maxIndividualSize
}

// Get returns the genome in slot i.
func (p *Population) Get(i int) Genome {
	return p.genomes[i]
}

// Genomes returns the slot references. The slice is a copy; the genomes are not.
func (p *Population) Genomes() []Genome {
	return append([]Genome(nil), p.genomes...)
}

// NewGenome creates an empty genome of the population's encoding.
func (p *Population) NewGenome() Genome {
	return p.factory()
}

// Validate checks the population invariants.
func (p *Population) Validate() error {
	if len(p.genomes) == 0 {
		return fmt.Errorf("%w: population is empty", ErrConfiguration)
	}
	if len(p.genomes) > p.maxSize {
		return fmt.Errorf("%w: population holds %d genomes, max %d", ErrConfiguration, len(p.genomes), p.maxSize)
	}
	for i, g := range p.genomes {
		if !p.fits(g) {
			return fmt.Errorf("%w: genome %d size %d > %d", ErrSizeViolation, i, g.Size(), p.maxIndividualSize)
		}
	}
	return nil
}

// FindBest returns the best genome of the population under cmp.
func (p *Population) FindBest(cmp Comparator) Genome {
	var best Genome
	for _, g := range p.genomes {
		if best == nil || cmp.IsBetterThan(g.Score(), best.Score()) {
			best = g
		}
	}
	return best
}

// Scores snapshots the score of every slot.
func (p *Population) Scores() []float64 {
	out := make([]float64, len(p.genomes))
	for i, g := range p.genomes {
		out[i] = g.Score()
	}
	return out
}

func (p *Population) fits(g Genome) bool {
	return p.maxIndividualSize <= 0 || g.Size() <= p.maxIndividualSize
}
