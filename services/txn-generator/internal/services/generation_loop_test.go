package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/publisher"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/synth"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-generator/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeAssembler struct {
	calls []string
	err   error
	short bool
}

func (f *fakeAssembler) AssembleRecordSet(dists synth.DistributionSet, products []string, nRows int) (synth.Batch, error) {
	f.calls = append(f.calls, dists.Name())
	if f.err != nil {
		return synth.Batch{}, f.err
	}
	n := len(products) * len(synth.Labels) * nRows
	if f.short {
		n--
	}
	return synth.Batch{Columns: models.TransactionColumns, Records: make([]models.TransactionRecord, n)}, nil
}

type fakePublisher struct {
	published int
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, records []models.TransactionRecord) (publisher.Publication, error) {
	if f.err != nil {
		return publisher.Publication{}, f.err
	}
	f.published++
	return publisher.Publication{FileID: "id", FileName: "part.json", Records: len(records)}, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func testConfig(total, threshold int) *configs.Config {
	return &configs.Config{
		DestinationPath:   "unused",
		TempPath:          "unused-tmp",
		RowsPerGeneration: 2,
		Products:          "A,B,C",
		TotalIterations:   total,
		ShiftThreshold:    threshold,
	}
}

func newLoop(cfg *configs.Config, a RecordSetAssembler, p publisher.Publisher, logger *zap.Logger, sleep func(context.Context, time.Duration) error) GenerationLoop {
	return NewGenerationLoop(GenerationLoopConfig{
		Logger:    logger,
		Config:    cfg,
		Assembler: a,
		Publisher: p,
		Baseline:  synth.BaselineDistributions(),
		Shifted:   synth.ShiftedDistributions(),
		Sleep:     sleep,
	})
}

func TestRun_PublishesTotalMinusOneFiles(t *testing.T) {
	a, p := &fakeAssembler{}, &fakePublisher{}
	core, logs := observer.New(zapcore.WarnLevel)
	loop := newLoop(testConfig(5, 4000), a, p, zap.New(core), noSleep)

	require.Equal(t, StateRunning, loop.State())
	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, 4, p.published)
	assert.Equal(t, 5, loop.Iteration())
	assert.Equal(t, StateTerminated, loop.State())
	assert.Equal(t, "baseline", loop.ActiveDistributions().Name())
	assert.Equal(t, 1, logs.FilterMessage("shift_threshold_unreachable").Len())
}

func TestRun_ShiftAppliedOnceAfterThreshold(t *testing.T) {
	a, p := &fakeAssembler{}, &fakePublisher{}
	loop := newLoop(testConfig(10, 3), a, p, zap.NewNop(), noSleep)

	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, 9, p.published)
	assert.Equal(t, []string{
		"baseline", "baseline", "baseline",
		"shifted", "shifted", "shifted", "shifted", "shifted", "shifted",
	}, a.calls)
	assert.Equal(t, "shifted", loop.ActiveDistributions().Name())
}

func TestRun_WarnsWhenNoCycleCanUseShift(t *testing.T) {
	cases := []struct {
		threshold int
		warnings  int
		shifted   int
	}{
		{threshold: 9, warnings: 1, shifted: 0},
		{threshold: 8, warnings: 0, shifted: 1},
	}
	for _, tc := range cases {
		a := &fakeAssembler{}
		core, logs := observer.New(zapcore.WarnLevel)
		loop := newLoop(testConfig(10, tc.threshold), a, &fakePublisher{}, zap.New(core), noSleep)

		require.NoError(t, loop.Run(context.Background()))

		assert.Equal(t, tc.warnings, logs.FilterMessage("shift_threshold_unreachable").Len(), "threshold %d", tc.threshold)
		shifted := 0
		for _, name := range a.calls {
			if name == "shifted" {
				shifted++
			}
		}
		assert.Equal(t, tc.shifted, shifted, "threshold %d", tc.threshold)
	}
}

func TestRun_LogsProgressEveryTenth(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	loop := newLoop(testConfig(25, 4000), &fakeAssembler{}, &fakePublisher{}, zap.New(core), noSleep)

	require.NoError(t, loop.Run(context.Background()))

	progress := logs.FilterMessage("generation_progress").All()
	require.Len(t, progress, 2)
	assert.EqualValues(t, 10, progress[0].ContextMap()[pkg.Iteration])
	assert.EqualValues(t, 20, progress[1].ContextMap()[pkg.Iteration])
}

func TestRun_StopsBetweenCyclesOnCancel(t *testing.T) {
	p := &fakePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	sleeps := 0
	sleep := func(ctx context.Context, _ time.Duration) error {
		sleeps++
		if sleeps == 2 {
			cancel()
		}
		return ctx.Err()
	}
	loop := newLoop(testConfig(100, 4000), &fakeAssembler{}, p, zap.NewNop(), sleep)

	require.NoError(t, loop.Run(ctx))
	assert.Equal(t, 2, p.published)
	assert.Equal(t, StateTerminated, loop.State())
}

func TestRun_PublishErrorAborts(t *testing.T) {
	boom := pkg.NewAppError(pkg.ErrGenPublishCopyCode, "", publisher.ErrPublishCopy)
	p := &fakePublisher{err: boom}
	loop := newLoop(testConfig(10, 4000), &fakeAssembler{}, p, zap.NewNop(), noSleep)

	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, publisher.ErrPublishCopy)
	assert.Equal(t, 1, loop.Iteration())
	assert.Equal(t, StateTerminated, loop.State())
}

func TestRun_SchemaMismatchAborts(t *testing.T) {
	a := &fakeAssembler{err: synth.ErrSchemaMismatch}
	loop := newLoop(testConfig(10, 4000), a, &fakePublisher{}, zap.NewNop(), noSleep)

	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkg.ErrGenSchemaMismatchCode.Code, pkg.CodeOf(err))
}

func TestRun_RecordCountMismatchAborts(t *testing.T) {
	p := &fakePublisher{}
	loop := newLoop(testConfig(10, 4000), &fakeAssembler{short: true}, p, zap.NewNop(), noSleep)

	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, synth.ErrSchemaMismatch)
	assert.Zero(t, p.published)
}

func TestRun_UnknownProductAborts(t *testing.T) {
	cfg := testConfig(3, 4000)
	cfg.Products = "A,Z"
	gen := synth.NewGenerator(synth.GeneratorConfig{Seed: 1})
	loop := newLoop(cfg, gen, &fakePublisher{}, zap.NewNop(), noSleep)

	err := loop.Run(context.Background())
	assert.True(t, errors.Is(err, synth.ErrUnknownProduct))
}

func TestRun_EndToEndWritesFiles(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(4, 4000)
	cfg.DestinationPath = filepath.Join(root, "landing")
	cfg.TempPath = filepath.Join(root, "staging")
	cfg.RowsPerGeneration = 3

	pub := publisher.New(publisher.Config{DestinationPath: cfg.DestinationPath, TempPath: cfg.TempPath})
	gen := synth.NewGenerator(synth.GeneratorConfig{Seed: 77})
	loop := newLoop(cfg, gen, pub, zap.NewNop(), noSleep)

	require.NoError(t, loop.Run(context.Background()))

	entries, err := os.ReadDir(cfg.DestinationPath)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		records, err := publisher.ReadFile(filepath.Join(cfg.DestinationPath, e.Name()))
		require.NoError(t, err)
		assert.Len(t, records, 3*2*3)
		for _, r := range records {
			assert.Contains(t, []int{synth.LabelLegit, synth.LabelFraud}, r.Label)
		}
	}
	_, err = os.Stat(cfg.TempPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepContext(ctx, 0), context.Canceled)
}
