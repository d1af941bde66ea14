// Package jsonbackend stores finished reports as one JSON file per report in
// a directory. Meant for local runs and debugging, not concurrency-heavy use.
package jsonbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/storage"
)

var _ storage.Backend = (*jsonBackend)(nil)

type jsonBackend struct {
	mu  sync.Mutex
	dir string
}

// New creates the directory if needed and returns the backend.
func New(dir string) (storage.Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &jsonBackend{dir: dir}, nil
}

func (b *jsonBackend) path(id string) string {
	return filepath.Join(b.dir, id+".json")
}

func (b *jsonBackend) Save(ctx context.Context, report *intel.ResearchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.WriteFile(b.path(report.ID), data, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

func (b *jsonBackend) Get(ctx context.Context, id string) (*intel.ResearchReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path(id))
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var report intel.ResearchReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

func (b *jsonBackend) List(ctx context.Context, filter storage.Filter) ([]*intel.ResearchReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("read report dir: %w", err)
	}

	var reports []*intel.ResearchReport
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var report intel.ResearchReport
		if err := json.Unmarshal(data, &report); err != nil {
			// Skip foreign files in the directory.
			continue
		}
		if filter.EntityName != "" && report.EntityName != filter.EntityName {
			continue
		}
		if filter.Since != nil && report.GeneratedAt.Before(*filter.Since) {
			continue
		}
		reports = append(reports, &report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
	if filter.Limit > 0 && len(reports) > filter.Limit {
		reports = reports[:filter.Limit]
	}
	return reports, nil
}

func (b *jsonBackend) Close() error { return nil }
