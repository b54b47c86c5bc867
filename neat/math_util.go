package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// clamp restricts a value to a given range [minVal, maxVal].
func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// strictBool parses the boolean spellings accepted in config files.
func strictBool(s string) (bool, error) {
	switch strings.ToLower(cleanIniString(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// parseBoolAttribute parses a boolean attribute default. "random" and
// "none" pick a value with equal odds.
func parseBoolAttribute(rng *rand.Rand, s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "random" || s == "none" {
		return rng.Float64() < 0.5
	}
	v, _ := strictBool(s)
	return v
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func sortedNodeKeys(nodes map[int]*NodeGene) []int {
	keys := make([]int, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedConnectionKeys(conns map[ConnectionKey]*ConnectionGene) []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(conns))
	for k := range conns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InNodeID != keys[j].InNodeID {
			return keys[i].InNodeID < keys[j].InNodeID
		}
		return keys[i].OutNodeID < keys[j].OutNodeID
	})
	return keys
}
