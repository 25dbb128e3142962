package secondary

import "context"

// ExtractionClient defines the secondary port for the external AI
// extraction collaborator: given a file and optional context hints it
// returns structured raw rows, or fails with an extraction error. The
// vision model behind it is a black box to this system.
type ExtractionClient interface {
	Extract(ctx context.Context, source string, hints map[string]string) ([]*ExtractedRowData, error)
}

// ExtractedRowData is one raw row as produced by the collaborator,
// before any normalization.
type ExtractedRowData struct {
	DrawingRef   string             `json:"drawing_ref"`
	Mark         string             `json:"mark"`
	Quantity     int                `json:"quantity"`
	BarSize      string             `json:"bar_size"`
	Grade        string             `json:"grade"`
	ShapeCode    string             `json:"shape_code"`
	TotalLength  float64            `json:"total_length"`
	Dimensions   map[string]float64 `json:"dimensions,omitempty"`
}
