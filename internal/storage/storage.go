// Package storage archives finished research reports. The pipeline takes an
// optional Backend and saves each completed report; intermediate run state is
// never persisted.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/madeira-labs/concorrente/internal/intel"
)

// ErrNotFound is returned when no report matches the requested id.
var ErrNotFound = errors.New("report not found")

// Filter narrows List results.
type Filter struct {
	// EntityName restricts to reports generated for one entity; empty matches all.
	EntityName string
	// Since restricts to reports generated at or after the given time.
	Since *time.Time
	// Limit caps the result count; 0 means no cap.
	Limit int
}

// Backend stores and retrieves finished reports.
type Backend interface {
	Save(ctx context.Context, report *intel.ResearchReport) error
	Get(ctx context.Context, id string) (*intel.ResearchReport, error)
	List(ctx context.Context, filter Filter) ([]*intel.ResearchReport, error)
	Close() error
}
