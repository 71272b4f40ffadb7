// Package repository persists scan runs and their findings.
package repository

import (
	"context"

	"github.com/memscope/pkg/model"
)

// ScanRunRepository stores scan history.
type ScanRunRepository interface {
	// SaveRun stores a report and all its findings atomically.
	SaveRun(ctx context.Context, report *model.ScanReport) error

	// GetRun loads a report with its findings in offset order.
	GetRun(ctx context.Context, runID string) (*model.ScanReport, error)

	// ListRuns returns the most recent runs first, without findings.
	ListRuns(ctx context.Context, limit int) ([]*ScanRun, error)

	// DeleteRun removes a run and its findings.
	DeleteRun(ctx context.Context, runID string) error
}
