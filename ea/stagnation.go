package ea

import (
	"sort"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config *SpeciesConfig
	cmp    Comparator
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *SpeciesConfig, cmp Comparator) *Stagnation {
	return &Stagnation{Config: config, cmp: cmp}
}

// StagnationInfo describes a species removed for stagnation.
type StagnationInfo struct {
	SpeciesID         int
	Species           *Species
	GensNoImprovement int
}

// Update removes species that have not improved for more than MaxStagnation
// generations. The best SpeciesElitism species are always spared, and the
// best species survives even when elitism is disabled.
func (s *Stagnation) Update(species []*Species) ([]*Species, []StagnationInfo) {
	if len(species) == 0 {
		return species, nil
	}

	ranked := append([]*Species(nil), species...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.cmp.IsBetterThan(ranked[i].BestScore, ranked[j].BestScore)
	})
	protected := make(map[*Species]bool, s.Config.SpeciesElitism)
	for i := 0; i < max(s.Config.SpeciesElitism, 1) && i < len(ranked); i++ {
		protected[ranked[i]] = true
	}

	kept := make([]*Species, 0, len(species))
	var removed []StagnationInfo
	for _, sp := range species {
		if sp.GensNoImprovement > s.Config.MaxStagnation && !protected[sp] {
			removed = append(removed, StagnationInfo{
				SpeciesID:         sp.ID,
				Species:           sp,
				GensNoImprovement: sp.GensNoImprovement,
			})
			continue
		}
		kept = append(kept, sp)
	}
	return kept, removed
}
