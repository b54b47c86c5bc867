package ea

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// AllocateOffspring converts the species' offspring shares into integer
// offspring counts summing to total, using largest-remainder rounding.
// Negative or non-finite shares count as zero. When every share is zero the
// total is split evenly.
func AllocateOffspring(species []*Species, total int) error {
	if total < 0 {
		return fmt.Errorf("offspring total must be >= 0, got %d", total)
	}
	if len(species) == 0 {
		if total > 0 {
			return fmt.Errorf("cannot allocate %d offspring without species", total)
		}
		return nil
	}

	shares := make([]float64, len(species))
	for i, sp := range species {
		share := sp.OffspringShare
		if math.IsNaN(share) || math.IsInf(share, 0) || share < 0 {
			share = 0
		}
		shares[i] = share
	}
	sum := floats.Sum(shares)
	if sum <= 0 {
		for i := range shares {
			shares[i] = 1
		}
		sum = float64(len(shares))
	}

	type remainder struct {
		index int
		frac  float64
	}
	remainders := make([]remainder, len(species))
	assigned := 0
	for i, sp := range species {
		exact := shares[i] / sum * float64(total)
		whole := math.Floor(exact)
		sp.OffspringCount = int(whole)
		assigned += sp.OffspringCount
		remainders[i] = remainder{index: i, frac: exact - whole}
	}

	// Hand out the rounding leftovers, largest fraction first.
	sort.SliceStable(remainders, func(i, j int) bool {
		return remainders[i].frac > remainders[j].frac
	})
	for k := 0; assigned < total; k++ {
		species[remainders[k%len(remainders)].index].OffspringCount++
		assigned++
	}
	return nil
}
