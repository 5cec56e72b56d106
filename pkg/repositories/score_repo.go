package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
)

type ScoreRepository interface {
	// CreateBatch inserts scored rows; rows already stored for the same file and index are skipped.
	CreateBatch(ctx context.Context, tx pgx.Tx, scores []models.TransactionScore) (int64, error)
	// CountByFile counts rows already stored for a file.
	CountByFile(ctx context.Context, q Querier, fileID string) (int, error)
}

// Querier is satisfied by pgx.Tx, *pgxpool.Pool and *database.DB.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ScoreRepositoryImpl struct{}

func NewScoreRepository() ScoreRepository {
	return &ScoreRepositoryImpl{}
}

const insertScoreSQL = `
	INSERT INTO transaction_scores (file_id, row_index, customer_id, product, amount, transaction_ts, label, prediction, scored_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (file_id, row_index) DO NOTHING`

func (r ScoreRepositoryImpl) CreateBatch(ctx context.Context, tx pgx.Tx, scores []models.TransactionScore) (int64, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, s := range scores {
		batch.Queue(insertScoreSQL,
			s.FileID,
			s.RowIndex,
			s.CustomerID,
			s.Product,
			s.Amount,
			s.TransactionTimestamp,
			s.Label,
			s.Prediction,
			s.ScoredAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	var inserted int64
	var errs []error
	for range scores {
		tag, err := results.Exec()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		errs = append(errs, err)
	}
	return inserted, errors.Join(errs...)
}

func (r ScoreRepositoryImpl) CountByFile(ctx context.Context, q Querier, fileID string) (int, error) {
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_scores WHERE file_id = $1`, fileID).Scan(&n)
	return n, err
}
