package ea

import "math"

// Comparator orders genomes by score. NaN scores always rank worst.
type Comparator struct {
	Minimize bool
}

// IsBetterThan reports whether score a is strictly better than score b.
func (c Comparator) IsBetterThan(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	if c.Minimize {
		return a < b
	}
	return a > b
}

// Compare returns a negative number when a ranks ahead of b, positive when b
// ranks ahead of a and zero on equal scores.
func (c Comparator) Compare(a, b Genome) int {
	switch {
	case c.IsBetterThan(a.Score(), b.Score()):
		return -1
	case c.IsBetterThan(b.Score(), a.Score()):
		return 1
	default:
		return 0
	}
}

// Less ranks genomes for elitism: better score first, then newer birth
// generation first so ties resolve deterministically.
func (c Comparator) Less(a, b Genome) bool {
	if r := c.Compare(a, b); r != 0 {
		return r < 0
	}
	return a.BirthGeneration() > b.BirthGeneration()
}

// WorstScore is the score every real score improves on.
func (c Comparator) WorstScore() float64 {
	if c.Minimize {
		return math.Inf(1)
	}
	return math.Inf(-1)
}
