package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/rebarflow/internal/ports/secondary"
)

// FileReader reads pre-extracted rows from a local JSON file. Used when
// no extraction service is configured and for replaying captured
// extraction output during development.
type FileReader struct{}

var _ secondary.ExtractionClient = (*FileReader)(nil)

// NewFileReader creates a file-backed extraction client.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Extract parses the file at source as a JSON array of rows. Hints are
// ignored; the file already is the extraction output.
func (r *FileReader) Extract(ctx context.Context, source string, hints map[string]string) ([]*secondary.ExtractedRowData, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read rows file: %w", err)
	}

	var rows []*secondary.ExtractedRowData
	if err := json.Unmarshal(data, &rows); err != nil {
		// Also accept the service's response envelope.
		var envelope extractResponse
		if envErr := json.Unmarshal(data, &envelope); envErr != nil {
			return nil, fmt.Errorf("parse rows file: %w", err)
		}
		rows = envelope.Rows
	}

	return rows, nil
}
