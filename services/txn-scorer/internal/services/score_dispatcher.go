package services

import (
	"context"
	"sync"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-scorer/internal/observability"
	"go.uber.org/zap"
)

// ScoreDispatcher fans files out to a bounded set of workers.
type ScoreDispatcher interface {
	Run(ctx context.Context, files <-chan string)
}

type ScoreDispatcherConfig struct {
	Logger         *zap.Logger
	Service        ScoringService
	MaxConcurrency int
}

type ScoreDispatcherImpl struct {
	logger  *zap.Logger
	service ScoringService
	sem     chan struct{} // limits concurrent files
}

func NewScoreDispatcher(cfg ScoreDispatcherConfig) ScoreDispatcher {
	return &ScoreDispatcherImpl{
		logger:  cfg.Logger,
		service: cfg.Service,
		sem:     make(chan struct{}, max(cfg.MaxConcurrency, 1)),
	}
}

// Run processes files until the channel closes or ctx ends, then waits for in-flight work.
func (d *ScoreDispatcherImpl) Run(ctx context.Context, files <-chan string) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var path string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case path, ok = <-files:
			if !ok {
				return
			}
		}

		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		observability.InflightFiles.Inc()
		wg.Add(1)
		go func(p string) {
			defer func() {
				<-d.sem
				observability.InflightFiles.Dec()
				wg.Done()
			}()
			if err := d.service.ProcessFile(ctx, p); err != nil {
				d.logger.Debug("file_processing_ended_with_error", zap.String("path", p), zap.String("code", pkg.CodeOf(err)))
			}
		}(path)
	}
}
