package ea

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CompatibilityFunc measures the genetic distance between two genomes.
// Genomes closer than the compatibility threshold share a species.
type CompatibilityFunc func(a, b Genome) float64

// SpeciationResult summarizes one speciation pass.
type SpeciationResult struct {
	Created      []*Species
	Removed      []StagnationInfo
	MeanDistance float64
	StdDistance  float64
}

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species []*Species
	Config  *SpeciesConfig

	indexer    int
	distance   CompatibilityFunc
	cmp        Comparator
	factory    GenomeFactory
	stagnation *Stagnation
}

// NewSpeciesSet creates a species set manager.
func NewSpeciesSet(config *SpeciesConfig, distance CompatibilityFunc, cmp Comparator, factory GenomeFactory) (*SpeciesSet, error) {
	if distance == nil {
		return nil, fmt.Errorf("%w: speciation requires a compatibility function", ErrConfiguration)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: speciation requires a genome factory", ErrConfiguration)
	}
	return &SpeciesSet{
		Config:     config,
		indexer:    1, // Start species IDs at 1
		distance:   distance,
		cmp:        cmp,
		factory:    factory,
		stagnation: NewStagnation(config, cmp),
	}, nil
}

// Speciate partitions the population into species and allocates the offspring
// of the coming generation. It must run while no worker is between selection
// and submission.
func (ss *SpeciesSet) Speciate(population []Genome, generation int) (SpeciationResult, error) {
	var result SpeciationResult
	if len(population) == 0 {
		ss.Species = nil
		return result, nil
	}

	// --- Step 1: Purge last generation's membership ---
	for _, sp := range ss.Species {
		sp.Purge()
	}

	// --- Step 2: Assign every genome to the closest compatible leader ---
	distances := make([]float64, 0, len(population))
	for _, g := range population {
		var best *Species
		minDist := math.Inf(1)
		for _, sp := range ss.Species {
			d := ss.distance(sp.Leader, g)
			distances = append(distances, d)
			if d < ss.Config.CompatibilityThreshold && d < minDist {
				minDist = d
				best = sp
			}
		}
		if best == nil {
			best = NewSpecies(ss.indexer, generation, g, ss.factory, ss.Config.SurvivalRate, ss.cmp)
			ss.indexer++
			ss.Species = append(ss.Species, best)
			result.Created = append(result.Created, best)
		}
		best.Add(g)
	}
	if len(distances) > 1 {
		result.MeanDistance, result.StdDistance = stat.MeanStdDev(distances, nil)
	}

	// --- Step 3: Rank members and track leaders ---
	for _, sp := range ss.Species {
		sp.SortMembers(ss.cmp)
		sp.UpdateLeader(ss.cmp)
	}

	// --- Step 4: Remove stagnant species ---
	var removed []StagnationInfo
	ss.Species, removed = ss.stagnation.Update(ss.Species)
	result.Removed = removed

	// --- Step 5: Shares and offspring allocation ---
	maxScore := maxFiniteScore(population)
	for _, sp := range ss.Species {
		sp.CalculateShare(ss.cmp.Minimize, maxScore)
	}
	if err := AllocateOffspring(ss.Species, len(population)); err != nil {
		return result, err
	}
	return result, nil
}

// Len returns the number of live species.
func (ss *SpeciesSet) Len() int {
	return len(ss.Species)
}

// SpeciesOf returns the species g is currently assigned to.
func (ss *SpeciesSet) SpeciesOf(g Genome) (*Species, bool) {
	for _, sp := range ss.Species {
		for _, m := range sp.Members {
			if m == g {
				return sp, true
			}
		}
	}
	return nil, false
}

func maxFiniteScore(population []Genome) float64 {
	maxScore := math.Inf(-1)
	for _, g := range population {
		score := g.Score()
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		maxScore = math.Max(maxScore, score)
	}
	if math.IsInf(maxScore, -1) {
		return 0
	}
	return maxScore
}
