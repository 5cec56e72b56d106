package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/database"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/repositories"
	"go.uber.org/zap"
)

// PostgresScoreStore writes through the primary and reads through replicas.
type PostgresScoreStore struct {
	logger *zap.Logger
	db     *database.DB
	repo   repositories.ScoreRepository
}

func NewPostgresScoreStore(logger *zap.Logger, db *database.DB, repo repositories.ScoreRepository) *PostgresScoreStore {
	return &PostgresScoreStore{logger: logger, db: db, repo: repo}
}

// Save writes all rows of a file in one transaction.
func (s *PostgresScoreStore) Save(ctx context.Context, fileID string, scores []models.TransactionScore) (int64, error) {
	var inserted int64
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		n, err := s.repo.CreateBatch(ctx, tx, scores)
		inserted = n
		return err
	})
	if err != nil {
		return 0, pkg.HandleSQLError(s.logger, fileID, err)
	}
	return inserted, nil
}

// StoredCount reads the number of rows already stored for a file from a replica.
func (s *PostgresScoreStore) StoredCount(ctx context.Context, fileID string) (int, error) {
	n, err := s.repo.CountByFile(ctx, s.db, fileID)
	if err != nil {
		return 0, pkg.HandleSQLError(s.logger, fileID, err)
	}
	return n, nil
}
