package ea

// Genome is one candidate solution. Encodings live outside this package; the
// trainer only needs the score, a structural size and the birth generation.
type Genome interface {
	Score() float64
	SetScore(score float64)
	// Size is the structural size checked against the maximum individual size.
	Size() int
	BirthGeneration() int
	SetBirthGeneration(generation int)
	// Copy overwrites the receiver with the contents of src. Population slots
	// are reused this way so references held by species stay valid.
	Copy(src Genome)
}

// GenomeFactory creates an empty genome of the population's encoding. It is
// used for the best-genome slot and for worker scratch offspring.
type GenomeFactory func() Genome

// BasicGenome carries the bookkeeping fields shared by every encoding.
// Encodings embed it and implement Size and Copy.
type BasicGenome struct {
	score           float64
	birthGeneration int
}

func (g *BasicGenome) Score() float64 {
	return g.score
}

func (g *BasicGenome) SetScore(score float64) {
	g.score = score
}

func (g *BasicGenome) BirthGeneration() int {
	return g.birthGeneration
}

func (g *BasicGenome) SetBirthGeneration(generation int) {
	g.birthGeneration = generation
}

// CopyBasic copies the score and birth generation of src.
func (g *BasicGenome) CopyBasic(src Genome) {
	g.score = src.Score()
	g.birthGeneration = src.BirthGeneration()
}
