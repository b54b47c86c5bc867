package ea

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	ID                int      // Unique identifier within the species set.
	Created           int      // Generation the species was founded in.
	Leader            Genome   // Owned copy of the best member seen so far.
	BestScore         float64  // Score of the leader.
	Age               int      // Generations survived.
	GensNoImprovement int      // Generations since BestScore last improved.
	OffspringShare    float64  // Fitness share computed for the coming generation.
	OffspringCount    int      // Offspring allocated for the coming generation.
	SurvivalRate      float64  // Fraction of members eligible as parents.
	Members           []Genome // Population slots assigned to the species, plus the leader after a purge.
}

// NewSpecies founds a species around first. The leader is a copy made with
// factory so that later overwrites of the population slot do not move it.
func NewSpecies(id, generation int, first Genome, factory GenomeFactory, survivalRate float64, cmp Comparator) *Species {
	leader := factory()
	leader.Copy(first)
	return &Species{
		ID:           id,
		Created:      generation,
		Leader:       leader,
		BestScore:    cmp.WorstScore(),
		SurvivalRate: survivalRate,
	}
}

// Add assigns a population slot to the species.
func (s *Species) Add(g Genome) {
	s.Members = append(s.Members, g)
}

// CalculateShare averages member scores into the species' offspring share.
// Members with NaN or infinite scores are left out of both sum and count.
// The leader counts once it has been purged into the member list, so a
// species holding only its leader still earns offspring.
func (s *Species) CalculateShare(minimize bool, maxScore float64) float64 {
	total := 0.0
	count := 0
	for _, g := range s.Members {
		score := g.Score()
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		if minimize {
			total += maxScore - score
		} else {
			total += score
		}
		count++
	}
	share := 0.0
	if count > 0 {
		share = total / float64(count)
	}
	s.OffspringShare = share
	return share
}

// EliteSize is the number of top members parents are drawn from.
func (s *Species) EliteSize() int {
	n := len(s.Members)
	elite := int(s.SurvivalRate*float64(n)) + 1
	return min(elite, n)
}

// ChooseParent picks a parent among the elite members. Members must be
// sorted (SortMembers); the order is that of the last sort, even if slots
// were overwritten since. A species without members falls back to its leader.
func (s *Species) ChooseParent(rng *rand.Rand) Genome {
	switch len(s.Members) {
	case 0:
		return s.Leader
	case 1:
		return s.Members[0]
	}
	return s.Members[rng.Intn(s.EliteSize())]
}

// SortMembers orders members best first, newer birth first on ties.
func (s *Species) SortMembers(cmp Comparator) {
	sort.SliceStable(s.Members, func(i, j int) bool {
		return cmp.Less(s.Members[i], s.Members[j])
	})
}

// UpdateLeader promotes the best member when it beats the recorded best
// score. Members must be sorted. It reports whether the species improved.
func (s *Species) UpdateLeader(cmp Comparator) bool {
	if len(s.Members) == 0 {
		return false
	}
	best := s.Members[0]
	if best == s.Leader || !cmp.IsBetterThan(best.Score(), s.BestScore) {
		return false
	}
	s.Leader.Copy(best)
	s.BestScore = best.Score()
	s.GensNoImprovement = 0
	return true
}

// Purge clears the members down to the leader at a generation boundary.
// The leader stays as the sole member until new genomes join, so a species
// no genome matches still exists and only stagnation removes it.
func (s *Species) Purge() {
	clear(s.Members)
	s.Members = append(s.Members[:0], s.Leader)
	s.Age++
	s.GensNoImprovement++
	s.OffspringShare = 0
	s.OffspringCount = 0
}

func (s *Species) String() string {
	return fmt.Sprintf("[Species %d: score=%.4f, members=%d, age=%d, no_improv=%d, share=%.4f, offspring count=%d]",
		s.ID, s.BestScore, len(s.Members), s.Age, s.GensNoImprovement, s.OffspringShare, s.OffspringCount)
}
