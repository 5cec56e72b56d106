package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/publisher"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/synth"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-generator/configs"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-generator/internal/observability"
	"go.uber.org/zap"
)

const progressEvery = 10

type LoopState int

const (
	StateRunning LoopState = iota
	StateParameterShiftApplied
	StateTerminated
)

func (s LoopState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateParameterShiftApplied:
		return "parameter_shift_applied"
	default:
		return "terminated"
	}
}

// RecordSetAssembler builds the record set of one cycle.
type RecordSetAssembler interface {
	AssembleRecordSet(dists synth.DistributionSet, products []string, nRows int) (synth.Batch, error)
}

type GenerationLoopConfig struct {
	Logger    *zap.Logger
	Config    *configs.Config
	Assembler RecordSetAssembler
	Publisher publisher.Publisher
	Baseline  synth.DistributionSet
	Shifted   synth.DistributionSet
	Sleep     func(ctx context.Context, d time.Duration) error // defaults to a context aware timer
}

type GenerationLoop interface {
	Run(ctx context.Context) error
	Iteration() int
	State() LoopState
	ActiveDistributions() synth.DistributionSet
}

type GenerationLoopImpl struct {
	logger    *zap.Logger
	cfg       *configs.Config
	products  []string
	assembler RecordSetAssembler
	publisher publisher.Publisher
	shifted   synth.DistributionSet
	sleep     func(ctx context.Context, d time.Duration) error

	mu        sync.RWMutex
	iteration int
	state     LoopState
	active    synth.DistributionSet
}

func NewGenerationLoop(c GenerationLoopConfig) GenerationLoop {
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &GenerationLoopImpl{
		logger:    c.Logger,
		cfg:       c.Config,
		products:  c.Config.ProductList(),
		assembler: c.Assembler,
		publisher: c.Publisher,
		shifted:   c.Shifted,
		sleep:     sleep,
		iteration: 1,
		state:     StateRunning,
		active:    c.Baseline,
	}
}

// Run publishes one file per cycle until the counter reaches TotalIterations.
// The counter starts at 1, so TotalIterations-1 files are published.
// Cancelling ctx stops the loop between cycles and is not an error.
func (g *GenerationLoopImpl) Run(ctx context.Context) error {
	total, threshold := g.cfg.TotalIterations, g.cfg.ShiftThreshold
	// no cycle runs shifted unless threshold < total-1
	if threshold >= total-1 {
		g.logger.Warn("shift_threshold_unreachable",
			zap.Int("shift_threshold", threshold),
			zap.Int("total_iterations", total))
	}
	g.logger.Info("generation_started",
		zap.Strings("products", g.products),
		zap.Int("rows_per_generation", g.cfg.RowsPerGeneration),
		zap.Int("total_iterations", total),
		zap.Duration("sleep_interval", g.cfg.SleepInterval))

	for g.Iteration() < total {
		if err := g.cycle(ctx); err != nil {
			g.setState(StateTerminated)
			observability.CycleFailures.WithLabelValues(pkg.CodeOf(err)).Inc()
			return err
		}

		n := g.advance()
		if n%progressEvery == 0 {
			g.logger.Info("generation_progress", zap.Int(pkg.Iteration, n), zap.Int("total_iterations", total))
		}

		if err := g.sleep(ctx, g.cfg.SleepInterval); err != nil {
			g.logger.Info("generation_interrupted", zap.Int(pkg.Iteration, n), zap.Error(err))
			g.setState(StateTerminated)
			return nil
		}

		if n > threshold {
			g.applyShift(n)
		}
	}

	g.setState(StateTerminated)
	g.logger.Info("generation_completed", zap.Int(pkg.Iteration, g.Iteration()))
	return nil
}

func (g *GenerationLoopImpl) cycle(ctx context.Context) error {
	start := time.Now()
	cycleID := uuid.NewString()
	dists := g.ActiveDistributions()
	logger := g.logger.With(zap.String(pkg.CycleId, cycleID), zap.Int(pkg.Iteration, g.Iteration()))

	set, err := g.assembler.AssembleRecordSet(dists, g.products, g.cfg.RowsPerGeneration)
	if err != nil {
		logger.Error("record_set_assembly_failed", zap.Error(err))
		if errors.Is(err, synth.ErrSchemaMismatch) {
			return pkg.NewAppError(pkg.ErrGenSchemaMismatchCode, "", err)
		}
		return pkg.NewAppError(pkg.ErrInvalidInputCode, "record set assembly failed", err)
	}
	want := len(g.products) * len(synth.Labels) * g.cfg.RowsPerGeneration
	if set.Len() != want {
		return pkg.NewAppError(pkg.ErrGenSchemaMismatchCode, "",
			fmt.Errorf("%w: got %d records, expected %d", synth.ErrSchemaMismatch, set.Len(), want))
	}

	// a cycle that has started runs to completion even if shutdown was requested
	pub, err := g.publisher.Publish(context.WithoutCancel(ctx), set.Records)
	if err != nil {
		return err
	}

	observability.FilesPublished.Inc()
	observability.RecordsGenerated.WithLabelValues(dists.Name()).Add(float64(pub.Records))
	observability.CycleLatency.Observe(time.Since(start).Seconds())
	logger.Debug("cycle_completed",
		zap.String(pkg.FileId, pub.FileID),
		zap.String("file", pub.FileName),
		zap.String("distribution", dists.Name()),
		zap.Int("records", pub.Records))
	return nil
}

func (g *GenerationLoopImpl) advance() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.iteration++
	observability.Iteration.Set(float64(g.iteration))
	return g.iteration
}

func (g *GenerationLoopImpl) applyShift(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateRunning {
		return
	}
	g.active = g.shifted
	g.state = StateParameterShiftApplied
	observability.DistributionShifted.Set(1)
	g.logger.Info("distribution_shift_applied", zap.Int(pkg.Iteration, n), zap.String("distribution", g.shifted.Name()))
}

func (g *GenerationLoopImpl) setState(s LoopState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *GenerationLoopImpl) Iteration() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.iteration
}

func (g *GenerationLoopImpl) State() LoopState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *GenerationLoopImpl) ActiveDistributions() synth.DistributionSet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
