package pkg

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Reusable errors
var (
	SqlErrForeignKeyViolation = errors.New("foreign key violation")
	SqlError                  = errors.New("sql error")
)

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code    string
	Message string // default message
}

var (
	// Generation cycle
	ErrGenSchemaMismatchCode = ErrorCode{Code: "GEN_SCHEMA_MISMATCH", Message: "record batches do not share a schema"}
	ErrGenStagingWriteCode   = ErrorCode{Code: "GEN_STAGING_WRITE", Message: "failed to write staging file"}
	ErrGenPublishCopyCode    = ErrorCode{Code: "GEN_PUBLISH_COPY", Message: "failed to copy file to destination"}
	ErrGenStagingCleanupCode = ErrorCode{Code: "GEN_STAGING_CLEANUP", Message: "failed to clean staging area"}

	// Scoring
	ErrScoreEndpointStatusCode = ErrorCode{Code: "SCORE_ENDPOINT_STATUS", Message: "model endpoint returned non-200"}
	ErrScoreTransportCode      = ErrorCode{Code: "SCORE_TRANSPORT", Message: "model endpoint unreachable"}
	ErrScorePredictionsCode    = ErrorCode{Code: "SCORE_PREDICTIONS", Message: "unusable prediction payload"}

	// Generic app
	ErrInvalidInputCode = ErrorCode{Code: "APP_INVALID_INPUT", Message: "invalid input"}
	ErrServerCode       = ErrorCode{Code: "APP_INTERNAL", Message: "internal error"}

	// SQL layer
	ErrRecordNotFoundCode = ErrorCode{Code: "APP_NOT_FOUND", Message: "record not found"}
	ErrSQLUnknownCode     = ErrorCode{Code: "SQL_UNKNOWN", Message: "sql error"}
	ErrSQLConflictCode    = ErrorCode{Code: "SQL_CONFLICT", Message: "sql conflict"}
	ErrSQLDuplicateCode   = ErrorCode{Code: "SQL_DUPLICATE", Message: "duplicate record"}
	ErrSQLInvalidInput    = ErrorCode{Code: "SQL_INVALID_INPUT", Message: "invalid input"}
)

type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error // internal cause (wrapped)
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	if msg == "" {
		msg = code.Message
	}
	return AppError{Code: code, Message: msg, Cause: cause}
}

// CodeOf returns the code string of the first AppError in err's chain, or ErrServerCode's.
func CodeOf(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code.Code
	}
	return ErrServerCode.Code
}

// HandleSQLError maps pg errors -> AppError with proper codes
func HandleSQLError(logger *zap.Logger, fileID string, err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn("sql error : no records found", zap.String(FileId, fileID))
		return NewAppError(ErrRecordNotFoundCode, "no records found", err)
	}
	if !errors.As(err, &pgErr) {
		logger.Error("sql error : unknown", zap.String(FileId, fileID), zap.Error(err))
		return NewAppError(ErrSQLUnknownCode, "sql error", err)
	}

	// Log rich pg error context
	logger.Error("sql error",
		zap.String(FileId, fileID),
		zap.String("code", pgErr.Code),
		zap.String("message", pgErr.Message),
		zap.String("detail", pgErr.Detail),
		zap.String("table", pgErr.TableName),
		zap.String("column", pgErr.ColumnName),
		zap.String("constraint", pgErr.ConstraintName),
	)

	switch pgErr.Code {
	case "23505": // unique_violation
		return NewAppError(ErrSQLDuplicateCode, "duplicate value violates unique constraint", SqlError)
	case "23503": // foreign_key_violation
		return NewAppError(ErrSQLConflictCode, "foreign key violation", SqlErrForeignKeyViolation)
	case "22001": // string_data_right_truncation
		return NewAppError(ErrSQLInvalidInput, "value too long for column", SqlError)
	case "22003": // numeric_value_out_of_range
		return NewAppError(ErrSQLInvalidInput, "numeric value out of range", SqlError)
	default:
		return NewAppError(ErrSQLUnknownCode, "sql error", SqlError)
	}
}
