package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/dtos"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/publisher"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/scoring"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/utils"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/views"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-scorer/configs"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-scorer/internal/observability"
	"go.uber.org/zap"
)

// FileDeduper claims a file for this replica.
type FileDeduper interface {
	MarkOnce(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Throttler gates calls to the model endpoint.
type Throttler interface {
	Acquire(ctx context.Context) error
}

// ScoreStore persists one row per scored record.
type ScoreStore interface {
	Save(ctx context.Context, fileID string, scores []models.TransactionScore) (int64, error)
	StoredCount(ctx context.Context, fileID string) (int, error)
}

// ScorePublisher announces results and failures.
type ScorePublisher interface {
	PublishResult(ctx context.Context, result dtos.ScoreResult) error
	PublishFailure(ctx context.Context, failure views.ScoreFailure) error
}

type ScoringServiceConfig struct {
	Logger    *zap.Logger
	Config    *configs.Config
	Client    scoring.Client
	Deduper   FileDeduper
	Throttler Throttler
	Store     ScoreStore
	Publisher ScorePublisher
	Sleep     func(ctx context.Context, d time.Duration) error // defaults to a context aware timer
}

type ScoringService interface {
	ProcessFile(ctx context.Context, path string) error
}

type ScoringServiceImpl struct {
	logger    *zap.Logger
	cfg       *configs.Config
	client    scoring.Client
	deduper   FileDeduper
	throttler Throttler
	store     ScoreStore
	publisher ScorePublisher
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewScoringService(c ScoringServiceConfig) ScoringService {
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &ScoringServiceImpl{
		logger:    c.Logger,
		cfg:       c.Config,
		client:    c.Client,
		deduper:   c.Deduper,
		throttler: c.Throttler,
		store:     c.Store,
		publisher: c.Publisher,
		sleep:     sleep,
	}
}

// FileIDOf derives the file id from a published file name.
func FileIDOf(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, id, ok := strings.Cut(name, "part-00000-"); ok && id != "" {
		return id
	}
	return name
}

// ProcessFile scores one published file. Files already claimed by another replica are skipped.
// Failures are sent to the DLQ, except shutdown which releases the claim instead.
func (s *ScoringServiceImpl) ProcessFile(ctx context.Context, path string) error {
	name := filepath.Base(path)
	fileID := FileIDOf(path)
	traceID := uuid.NewString()
	logger := s.logger.With(zap.String(pkg.FileId, fileID), zap.String(pkg.TraceId, traceID))

	first, err := s.deduper.MarkOnce(ctx, name)
	switch {
	case err != nil:
		logger.Warn("dedupe_unavailable", zap.Error(err))
		if s.alreadyStored(ctx, logger, fileID) {
			observability.FilesSkipped.WithLabelValues("already_stored").Inc()
			return nil
		}
	case !first:
		observability.FilesSkipped.WithLabelValues("already_claimed").Inc()
		logger.Debug("file_already_claimed", zap.String("file", name))
		return nil
	}

	attempts, err := s.process(ctx, logger, path, fileID, traceID)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		if rerr := s.deduper.Release(context.WithoutCancel(ctx), name); rerr != nil {
			logger.Warn("dedupe_release_failed", zap.Error(rerr))
		}
		observability.FilesSkipped.WithLabelValues("shutdown").Inc()
		return ctx.Err()
	}

	code := pkg.CodeOf(err)
	observability.FilesFailed.WithLabelValues(code).Inc()
	logger.Error("file_scoring_failed", zap.String("code", code), zap.Int("attempts", attempts), zap.Error(err))

	failure := views.ScoreFailure{
		FileName:  name,
		TraceID:   traceID,
		ErrorCode: code,
		Reason:    err.Error(),
		Attempts:  attempts,
		FailedAt:  time.Now().UTC(),
	}
	var se *scoring.StatusError
	if errors.As(err, &se) {
		failure.StatusCode = se.StatusCode
	}
	if perr := s.publisher.PublishFailure(ctx, failure); perr != nil {
		logger.Error("dlq_publish_failed", zap.Error(perr))
		return errors.Join(err, perr)
	}
	observability.DLQPublished.WithLabelValues(code).Inc()
	return err
}

// alreadyStored falls back to the score store when the claim cannot be checked.
// A failed lookup scores the file again; rows are keyed by (file_id, row_index).
func (s *ScoringServiceImpl) alreadyStored(ctx context.Context, logger *zap.Logger, fileID string) bool {
	n, err := s.store.StoredCount(ctx, fileID)
	if err != nil {
		logger.Warn("stored_count_failed", zap.Error(err))
		return false
	}
	if n > 0 {
		logger.Debug("file_already_stored", zap.Int("rows", n))
		return true
	}
	return false
}

func (s *ScoringServiceImpl) process(ctx context.Context, logger *zap.Logger, path, fileID, traceID string) (int, error) {
	records, err := publisher.ReadFile(path)
	if err != nil {
		return 0, pkg.NewAppError(pkg.ErrInvalidInputCode, "unreadable transaction file", err)
	}
	if len(records) == 0 {
		return 0, pkg.NewAppError(pkg.ErrInvalidInputCode, "transaction file is empty", nil)
	}

	resp, attempts, err := s.scoreWithRetry(ctx, logger, records)
	if err != nil {
		return attempts, err
	}
	preds, err := scoring.Predictions(resp)
	if err != nil {
		return attempts, pkg.NewAppError(pkg.ErrScorePredictionsCode, "", err)
	}
	if len(preds) != len(records) {
		return attempts, pkg.NewAppError(pkg.ErrScorePredictionsCode, "",
			fmt.Errorf("%w: %d predictions for %d records", scoring.ErrNoPredictions, len(preds), len(records)))
	}

	scoredAt := time.Now().UTC()
	labels := make([]int, len(records))
	rows := make([]models.TransactionScore, len(records))
	for i, r := range records {
		labels[i] = r.Label
		rows[i] = models.TransactionScore{
			FileID:               fileID,
			RowIndex:             i,
			CustomerID:           r.CustomerID,
			Product:              r.Product,
			Amount:               r.Amount,
			TransactionTimestamp: r.TransactionTimestamp,
			Label:                r.Label,
			Prediction:           preds[i],
			ScoredAt:             scoredAt,
		}
	}

	stored, err := s.store.Save(ctx, fileID, rows)
	if err != nil {
		return attempts, err
	}

	result := dtos.ScoreResult{
		FileID:      fileID,
		FileName:    filepath.Base(path),
		TraceID:     traceID,
		Records:     len(records),
		Predictions: preds,
		Stored:      stored,
		Attempts:    attempts,
		ScoredAt:    scoredAt,
	}
	if acc, err := scoring.Accuracy(labels, preds); err == nil {
		result.Accuracy = &acc
		observability.LastAccuracy.Set(acc)
	}
	if err := s.publisher.PublishResult(ctx, result); err != nil {
		return attempts, err
	}

	observability.FilesScored.Inc()
	observability.RecordsScored.Add(float64(len(records)))
	fields := []zap.Field{zap.Int("records", len(records)), zap.Int64("stored", stored), zap.Int("attempts", attempts)}
	if result.Accuracy != nil {
		fields = append(fields, zap.Float64("accuracy", *result.Accuracy))
	}
	logger.Info("file_scored", fields...)
	return attempts, nil
}

// scoreWithRetry retries transport failures, temporary endpoint statuses and throttle
// rejections with jittered exponential backoff, up to MaxRetryCount attempts.
func (s *ScoringServiceImpl) scoreWithRetry(ctx context.Context, logger *zap.Logger, records []models.TransactionRecord) (map[string]any, int, error) {
	for attempt := 1; ; attempt++ {
		resp, err := s.scoreOnce(ctx, records)
		if err == nil {
			return resp, attempt, nil
		}
		if !isRetryable(err) || attempt >= s.cfg.MaxRetryCount {
			return nil, attempt, err
		}
		delay := utils.CalculateExponentialBackoffWithJitter(attempt, s.cfg.RetryBaseBackoff, s.cfg.MaxRetryBackoff)
		logger.Warn("scoring_retry", zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(err))
		if serr := s.sleep(ctx, delay); serr != nil {
			return nil, attempt, serr
		}
	}
}

func (s *ScoringServiceImpl) scoreOnce(ctx context.Context, records []models.TransactionRecord) (map[string]any, error) {
	if err := s.throttler.Acquire(ctx); err != nil {
		observability.EndpointRequests.WithLabelValues("throttled").Inc()
		return nil, err
	}

	start := time.Now()
	var (
		resp map[string]any
		err  error
	)
	columns := scoring.FeatureColumns()
	if s.cfg.PayloadFormat == configs.PayloadInputs {
		resp, err = s.client.ScoreInputs(ctx, scoring.Inputs(columns, records))
	} else {
		resp, err = s.client.ScoreFrame(ctx, scoring.NewFrame(columns, records))
	}
	observability.EndpointLatency.Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.EndpointRequests.WithLabelValues(outcome).Inc()
	return resp, err
}

func isRetryable(err error) bool {
	return scoring.IsRetryable(err) ||
		errors.Is(err, pkg.ErrThrottleWait) ||
		errors.Is(err, pkg.ErrRateLimitExceeded)
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
