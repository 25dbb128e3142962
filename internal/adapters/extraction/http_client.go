// Package extraction contains clients for the external AI extraction
// collaborator.
package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/example/rebarflow/internal/ports/secondary"
)

// HTTPClient talks to the extraction service over HTTP. The drawing file
// is shipped base64-encoded in the request body; the service replies with
// structured raw rows.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ secondary.ExtractionClient = (*HTTPClient)(nil)

// NewHTTPClient creates a reusable HTTP extraction client.
func NewHTTPClient(endpoint, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	Filename string            `json:"filename"`
	Content  string            `json:"content"`
	Hints    map[string]string `json:"hints,omitempty"`
}

type extractResponse struct {
	Rows []*secondary.ExtractedRowData `json:"rows"`
}

// Extract uploads the file at source and returns the rows the service
// found. A non-200 response or an empty endpoint is an error; the caller
// decides what that means for the session.
func (c *HTTPClient) Extract(ctx context.Context, source string, hints map[string]string) ([]*secondary.ExtractedRowData, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("extraction endpoint not configured")
	}

	content, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	body, err := json.Marshal(extractRequest{
		Filename: filepath.Base(source),
		Content:  base64.StdEncoding.EncodeToString(content),
		Hints:    hints,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned %s", resp.Status)
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	return decoded.Rows, nil
}
