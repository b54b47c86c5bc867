package ea

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Reporter receives training progress events. Implementations are called from
// the goroutine driving Iteration, except WorkerError which may be called from
// any worker.
type Reporter interface {
	StartGeneration(generation int)
	EndGeneration(stats GenerationStats)
	NewBest(generation int, score float64)
	SpeciesStagnant(info StagnationInfo)
	WorkerError(worker int, err error)
	Shutdown(err error)
}

// ReporterSet fans events out to every registered reporter.
type ReporterSet struct {
	reporters []Reporter
}

// NewReporterSet creates a set from the given reporters.
func NewReporterSet(reporters ...Reporter) *ReporterSet {
	rs := &ReporterSet{}
	for _, r := range reporters {
		rs.Add(r)
	}
	return rs
}

// Add registers a reporter. nil reporters are ignored.
func (rs *ReporterSet) Add(r Reporter) {
	if r == nil {
		return
	}
	rs.reporters = append(rs.reporters, r)
}

func (rs *ReporterSet) StartGeneration(generation int) {
	for _, r := range rs.reporters {
		r.StartGeneration(generation)
	}
}

func (rs *ReporterSet) EndGeneration(stats GenerationStats) {
	for _, r := range rs.reporters {
		r.EndGeneration(stats)
	}
}

func (rs *ReporterSet) NewBest(generation int, score float64) {
	for _, r := range rs.reporters {
		r.NewBest(generation, score)
	}
}

func (rs *ReporterSet) SpeciesStagnant(info StagnationInfo) {
	for _, r := range rs.reporters {
		r.SpeciesStagnant(info)
	}
}

func (rs *ReporterSet) WorkerError(worker int, err error) {
	for _, r := range rs.reporters {
		r.WorkerError(worker, err)
	}
}

func (rs *ReporterSet) Shutdown(err error) {
	for _, r := range rs.reporters {
		r.Shutdown(err)
	}
}

// StdOutReporter prints human readable progress lines.
type StdOutReporter struct {
	out        io.Writer
	generation int
	start      time.Time
}

// NewStdOutReporter writes to os.Stdout.
func NewStdOutReporter() *StdOutReporter {
	return NewWriterReporter(os.Stdout)
}

// NewWriterReporter writes progress lines to w.
func NewWriterReporter(w io.Writer) *StdOutReporter {
	return &StdOutReporter{out: w}
}

func (r *StdOutReporter) StartGeneration(generation int) {
	r.generation = generation
	r.start = time.Now()
	fmt.Fprintf(r.out, "\n ****** Running generation %d ****** \n\n", generation)
}

func (r *StdOutReporter) EndGeneration(stats GenerationStats) {
	fmt.Fprintf(r.out, "Population's average score: %.5f stdev: %.5f median: %.5f\n",
		stats.MeanScore, stats.StdevScore, stats.MedianScore)
	fmt.Fprintf(r.out, "Best score: %.5f\n", stats.BestScore)
	if stats.SpeciesCount > 0 {
		fmt.Fprintf(r.out, "Population of %d members in %d species\n", stats.FiniteScores, stats.SpeciesCount)
	}
	if !r.start.IsZero() {
		fmt.Fprintf(r.out, "Generation time: %.3f sec\n", time.Since(r.start).Seconds())
	}
}

func (r *StdOutReporter) NewBest(generation int, score float64) {
	fmt.Fprintf(r.out, "New best score %.5f in generation %d\n", score, generation)
}

func (r *StdOutReporter) SpeciesStagnant(info StagnationInfo) {
	fmt.Fprintf(r.out, "Species %d removed due to stagnation (%d generations without improvement).\n",
		info.SpeciesID, info.GensNoImprovement)
}

func (r *StdOutReporter) WorkerError(worker int, err error) {
	fmt.Fprintf(r.out, "Error: worker %d stopped: %v\n", worker, err)
}

func (r *StdOutReporter) Shutdown(err error) {
	if err != nil {
		fmt.Fprintf(r.out, "Training stopped: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, "Training stopped.")
}

// ZapReporter writes structured training events to a zap logger.
type ZapReporter struct {
	log *zap.Logger
}

// NewZapReporter wraps logger. A nil logger discards everything.
func NewZapReporter(logger *zap.Logger) *ZapReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapReporter{log: logger.Named("trainer")}
}

func (r *ZapReporter) StartGeneration(generation int) {
	r.log.Debug("generation started", zap.Int("generation", generation))
}

func (r *ZapReporter) EndGeneration(stats GenerationStats) {
	r.log.Info("generation complete",
		zap.Int("generation", stats.Generation),
		zap.Float64("best", stats.BestScore),
		zap.Float64("mean", stats.MeanScore),
		zap.Float64("stdev", stats.StdevScore),
		zap.Float64("median", stats.MedianScore),
		zap.Int("species", stats.SpeciesCount),
	)
}

func (r *ZapReporter) NewBest(generation int, score float64) {
	r.log.Info("new best genome", zap.Int("generation", generation), zap.Float64("score", score))
}

func (r *ZapReporter) SpeciesStagnant(info StagnationInfo) {
	r.log.Info("species removed",
		zap.Int("species", info.SpeciesID),
		zap.Int("gens_no_improvement", info.GensNoImprovement),
	)
}

func (r *ZapReporter) WorkerError(worker int, err error) {
	r.log.Error("worker stopped", zap.Int("worker", worker), zap.Error(err))
}

func (r *ZapReporter) Shutdown(err error) {
	if err != nil {
		r.log.Warn("training stopped", zap.Error(err))
		return
	}
	r.log.Info("training stopped")
	_ = r.log.Sync()
}
