package publisher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/models"
)

const maxLineBytes = 1 << 20

// IsPublishedFile reports whether name looks like a completed published file.
func IsPublishedFile(name string) bool {
	return strings.HasSuffix(name, fileExt) && !strings.HasSuffix(name, tmpSuffix)
}

// ReadFile decodes a JSON lines file written by Publish. Blank lines are skipped.
func ReadFile(path string) ([]models.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []models.TransactionRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var r models.TransactionRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
