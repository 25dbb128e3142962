// Package validate runs the fixed engineering rule set over normalized
// rows and classifies the findings. The engine always completes; only the
// approval step is gated by its blockers.
package validate

import (
	"fmt"

	"github.com/example/rebarflow/internal/core/normalize"
)

// Issue severities.
const (
	SeverityBlocker = "blocker"
	SeverityWarning = "warning"
)

// MaxCutLengthMM is the longest stock length a bar can be cut from.
const MaxCutLengthMM = 18000

// RowInput is one normalized row as seen by the rule set. BarSize and
// Grade carry the mapped values.
type RowInput struct {
	RowID       string
	Mark        string
	Quantity    int
	BarSize     string
	Grade       string
	TotalLength float64
}

// Issue is one classified finding against a row field.
type Issue struct {
	RowID    string
	Field    string
	Severity string
	Message  string
}

// Summary aggregates a validation run.
type Summary struct {
	TotalRows  int
	Blockers   int
	Warnings   int
	CanApprove bool
}

// Run evaluates every row and returns the complete issue set plus its
// summary. Output is deterministic: rows in input order, fields in rule
// order.
func Run(rows []RowInput) ([]Issue, Summary) {
	var issues []Issue
	for _, row := range rows {
		issues = append(issues, checkRow(row)...)
	}

	summary := Summary{TotalRows: len(rows)}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityBlocker:
			summary.Blockers++
		case SeverityWarning:
			summary.Warnings++
		}
	}
	summary.CanApprove = summary.Blockers == 0

	return issues, summary
}

func checkRow(row RowInput) []Issue {
	var issues []Issue

	add := func(field, severity, message string) {
		issues = append(issues, Issue{RowID: row.RowID, Field: field, Severity: severity, Message: message})
	}

	switch {
	case row.BarSize == "":
		add("bar_size", SeverityBlocker, "bar size is missing")
	case !normalize.IsCanonicalBarSize(row.BarSize):
		add("bar_size", SeverityBlocker, fmt.Sprintf("bar size %q is not a canonical size", row.BarSize))
	}

	switch {
	case row.Grade == "":
		add("grade", SeverityWarning, fmt.Sprintf("grade is missing, %s will be assumed", normalize.DefaultGrade))
	case !normalize.IsCanonicalGrade(row.Grade):
		add("grade", SeverityWarning, fmt.Sprintf("grade %q is not a canonical grade", row.Grade))
	}

	if row.Quantity <= 0 {
		add("quantity", SeverityBlocker, "quantity must be greater than zero")
	}

	switch {
	case row.TotalLength <= 0:
		add("length", SeverityWarning, "total length is missing or not positive")
	case row.TotalLength > MaxCutLengthMM:
		add("length", SeverityWarning, fmt.Sprintf("total length %.0f exceeds %d mm stock", row.TotalLength, MaxCutLengthMM))
	}

	if row.Mark == "" {
		add("mark", SeverityWarning, "mark is missing")
	}

	return issues
}
