package publisher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(n int) []models.TransactionRecord {
	ts := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	out := make([]models.TransactionRecord, n)
	for i := range out {
		out[i] = models.TransactionRecord{
			CustomerID:           1234 + i,
			TransactionTimestamp: ts,
			Product:              "Product A",
			Amount:               float64(1000 * (i + 1)),
			Label:                i % 2,
		}
	}
	return out
}

func newTestPublisher(t *testing.T) (*FilePublisher, string, string) {
	t.Helper()
	root := t.TempDir()
	dest := filepath.Join(root, "landing")
	staging := filepath.Join(root, "staging")
	return New(Config{DestinationPath: dest, TempPath: staging}), dest, staging
}

func TestPublish_WritesOneFileAndCleansStaging(t *testing.T) {
	p, dest, staging := newTestPublisher(t)
	records := sampleRecords(6)

	pub, err := p.Publish(context.Background(), records)
	require.NoError(t, err)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, pub.FileName, entries[0].Name())
	assert.True(t, IsPublishedFile(pub.FileName))
	assert.Equal(t, filepath.Join(dest, pub.FileName), pub.Path)
	assert.Equal(t, 6, pub.Records)
	assert.Positive(t, pub.Bytes)

	_, err = os.Stat(staging)
	assert.ErrorIs(t, err, os.ErrNotExist)

	got, err := ReadFile(pub.Path)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for i, r := range got {
		assert.Equal(t, records[i].Amount/pkg.AmountScaleDivisor, r.Amount)
		assert.Equal(t, records[i].CustomerID, r.CustomerID)
		assert.True(t, records[i].TransactionTimestamp.Equal(r.TransactionTimestamp))
	}
	// caller's slice is not rescaled
	assert.Equal(t, 1000.0, records[0].Amount)
}

func TestPublish_JSONKeys(t *testing.T) {
	p, _, _ := newTestPublisher(t)
	pub, err := p.Publish(context.Background(), sampleRecords(1))
	require.NoError(t, err)

	raw, err := os.ReadFile(pub.Path)
	require.NoError(t, err)
	for _, col := range models.TransactionColumns {
		assert.Contains(t, string(raw), `"`+col+`":`)
	}
}

func TestPublish_EachCallProducesDistinctFile(t *testing.T) {
	p, dest, _ := newTestPublisher(t)
	for range 3 {
		_, err := p.Publish(context.Background(), sampleRecords(2))
		require.NoError(t, err)
	}
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestPublish_StaleStagingFailsWithoutTouchingDestination(t *testing.T) {
	p, dest, staging := newTestPublisher(t)
	require.NoError(t, os.MkdirAll(staging, 0o755))

	_, err := p.Publish(context.Background(), sampleRecords(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStagingWrite)
	assert.Equal(t, pkg.ErrGenStagingWriteCode.Code, pkg.CodeOf(err))

	_, statErr := os.Stat(dest)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestPublish_CopyFailureLeavesStaging(t *testing.T) {
	root := t.TempDir()
	// destination is a regular file so the copy cannot create it as a directory
	dest := filepath.Join(root, "landing")
	require.NoError(t, os.WriteFile(dest, []byte("x"), 0o644))
	staging := filepath.Join(root, "staging")
	p := New(Config{DestinationPath: dest, TempPath: staging})

	_, err := p.Publish(context.Background(), sampleRecords(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPublishCopy)

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPublish_CleanupFailureKeepsPublishedFile(t *testing.T) {
	p, dest, staging := newTestPublisher(t)
	p.removeAll = func(string) error {
		return &fs.PathError{Op: "unlinkat", Path: staging, Err: fs.ErrPermission}
	}

	pub, err := p.Publish(context.Background(), sampleRecords(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStagingCleanup)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, pkg.ErrGenStagingCleanupCode.Code, pkg.CodeOf(err))
	assert.Empty(t, pub.FileName)

	landed, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, landed, 1)
	staged, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Len(t, staged, 1)
}

func TestPublish_CancelledContext(t *testing.T) {
	p, dest, _ := newTestPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Publish(ctx, sampleRecords(1))
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dest)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{\"CustomerID\":1}\n\nnot-json\n"), 0o644))

	_, err := ReadFile(bad)
	assert.ErrorContains(t, err, "line 3")

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestIsPublishedFile(t *testing.T) {
	assert.True(t, IsPublishedFile("part-00000-x.json"))
	assert.False(t, IsPublishedFile("part-00000-x.json.tmp"))
	assert.False(t, IsPublishedFile("_SUCCESS"))
}
