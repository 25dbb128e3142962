package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestHTTPClient_Extract(t *testing.T) {
	var gotReq extractRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"rows":[{"mark":"M1","quantity":10,"bar_size":"20M","grade":"400W","total_length":2400}]}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	source := writeTempFile(t, "drawing.pdf", "not a real pdf")
	client := NewHTTPClient(server.URL, "test-key", 5*time.Second)

	rows, err := client.Extract(context.Background(), source, map[string]string{"project": "Tower Block A"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Mark != "M1" || rows[0].BarSize != "20M" || rows[0].Quantity != 10 {
		t.Errorf("row not decoded: %+v", rows[0])
	}
	if gotReq.Filename != "drawing.pdf" {
		t.Errorf("expected filename drawing.pdf, got %s", gotReq.Filename)
	}
	if gotReq.Hints["project"] != "Tower Block A" {
		t.Errorf("hints not forwarded: %+v", gotReq.Hints)
	}
}

func TestHTTPClient_ExtractServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := writeTempFile(t, "drawing.pdf", "content")
	client := NewHTTPClient(server.URL, "", 5*time.Second)

	if _, err := client.Extract(context.Background(), source, nil); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestFileReader_Extract(t *testing.T) {
	source := writeTempFile(t, "rows.json",
		`[{"mark":"M1","quantity":4,"bar_size":"#5","total_length":1800,"dimensions":{"A":600}}]`)

	rows, err := NewFileReader().Extract(context.Background(), source, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 1 || rows[0].BarSize != "#5" {
		t.Fatalf("rows not parsed: %+v", rows)
	}
	if rows[0].Dimensions["A"] != 600 {
		t.Errorf("dimensions not parsed: %+v", rows[0].Dimensions)
	}
}

func TestFileReader_ExtractEnvelope(t *testing.T) {
	source := writeTempFile(t, "rows.json", `{"rows":[{"mark":"M2","quantity":1,"bar_size":"15M"}]}`)

	rows, err := NewFileReader().Extract(context.Background(), source, nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Mark != "M2" {
		t.Fatalf("envelope rows not parsed: %+v", rows)
	}
}
