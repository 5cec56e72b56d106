package publisher

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
	"go.uber.org/zap"
)

// Errors returned by Publish, wrapped in a pkg.AppError.
var (
	ErrStagingWrite   = errors.New("staging write failed")
	ErrPublishCopy    = errors.New("publish copy failed")
	ErrStagingCleanup = errors.New("staging cleanup failed")
)

const (
	fileExt    = ".json"
	tmpSuffix  = ".tmp"
	filePrefix = "part-00000-"
)

// Config configures a FilePublisher. AmountDivisor defaults to pkg.AmountScaleDivisor.
type Config struct {
	DestinationPath string `validate:"required"`
	TempPath        string `validate:"required"`
	AmountDivisor   float64
	Logger          *zap.Logger
}

// Publication describes one file that reached the destination directory.
type Publication struct {
	FileID      string
	FileName    string
	Path        string
	Records     int
	Bytes       int64
	PublishedAt time.Time
}

// Publisher delivers one record set as one file in the destination directory.
type Publisher interface {
	Publish(ctx context.Context, records []models.TransactionRecord) (Publication, error)
}

// FilePublisher stages files under TempPath and copies them into DestinationPath.
type FilePublisher struct {
	destPath  string
	tempPath  string
	divisor   float64
	logger    *zap.Logger
	removeAll func(path string) error
}

// New creates a FilePublisher; a nil Logger is replaced by a no-op logger.
func New(cfg Config) *FilePublisher {
	divisor := cfg.AmountDivisor
	if divisor == 0 {
		divisor = pkg.AmountScaleDivisor
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilePublisher{
		destPath:  cfg.DestinationPath,
		tempPath:  cfg.TempPath,
		divisor:   divisor,
		logger:    logger,
		removeAll: os.RemoveAll,
	}
}

// Publish writes records as one JSON lines file in the staging directory, copies it
// into the destination and removes the staging directory.
// A staging failure leaves the destination untouched; a copy failure leaves staging in place.
func (p *FilePublisher) Publish(ctx context.Context, records []models.TransactionRecord) (Publication, error) {
	if err := ctx.Err(); err != nil {
		return Publication{}, err
	}
	fileID := uuid.NewString()
	name := filePrefix + fileID + fileExt
	logger := p.logger.With(zap.String(pkg.FileId, fileID))

	staged, size, err := p.writeStaging(name, records)
	if err != nil {
		logger.Error("staging_write_failed", zap.String("temp_path", p.tempPath), zap.Error(err))
		return Publication{}, pkg.NewAppError(pkg.ErrGenStagingWriteCode, "", fmt.Errorf("%w: %w", ErrStagingWrite, err))
	}

	dest := filepath.Join(p.destPath, name)
	if err := copyAtomic(staged, dest); err != nil {
		logger.Error("publish_copy_failed", zap.String("destination", dest), zap.Error(err))
		return Publication{}, pkg.NewAppError(pkg.ErrGenPublishCopyCode, "", fmt.Errorf("%w: %w", ErrPublishCopy, err))
	}

	if err := p.removeAll(p.tempPath); err != nil {
		logger.Error("staging_cleanup_failed", zap.String("temp_path", p.tempPath), zap.Error(err))
		return Publication{}, pkg.NewAppError(pkg.ErrGenStagingCleanupCode, "", fmt.Errorf("%w: %w", ErrStagingCleanup, err))
	}

	pub := Publication{
		FileID:      fileID,
		FileName:    name,
		Path:        dest,
		Records:     len(records),
		Bytes:       size,
		PublishedAt: time.Now().UTC(),
	}
	logger.Debug("file_published", zap.String("path", dest), zap.Int("records", pub.Records), zap.Int64("bytes", size))
	return pub, nil
}

func (p *FilePublisher) writeStaging(name string, records []models.TransactionRecord) (string, int64, error) {
	// the staging directory must not survive from an earlier run
	if _, err := os.Stat(p.tempPath); err == nil {
		return "", 0, fmt.Errorf("staging path %s already exists", p.tempPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", 0, err
	}
	if err := os.MkdirAll(p.tempPath, 0o755); err != nil {
		return "", 0, err
	}

	path := filepath.Join(p.tempPath, name)
	size, err := p.writeLines(path, records)
	if err != nil {
		_ = os.RemoveAll(p.tempPath)
		return "", 0, err
	}
	return path, size, nil
}

func (p *FilePublisher) writeLines(path string, records []models.TransactionRecord) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cw := &countingWriter{w: f}
	bw := bufio.NewWriter(cw)
	enc := json.NewEncoder(bw)
	for _, r := range records {
		r.Amount = r.Amount / p.divisor
		if err := enc.Encode(r); err != nil {
			return 0, err
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	if err := f.Sync(); err != nil {
		return 0, err
	}
	return cw.n, f.Close()
}

func copyAtomic(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp := dest + tmpSuffix
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
