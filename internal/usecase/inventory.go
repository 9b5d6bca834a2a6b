package usecase

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// ProcessInventory turns the raw process table into application records.
type ProcessInventory struct {
	source domain.ProcessSource
	logger *zap.Logger
}

// NewProcessInventory creates an inventory over source.
func NewProcessInventory(source domain.ProcessSource, logger *zap.Logger) *ProcessInventory {
	return &ProcessInventory{source: source, logger: logger}
}

// ListRunning snapshots the process table. Processes without a resolvable
// executable are dropped; the rest are deduplicated by path.
func (p *ProcessInventory) ListRunning() ([]domain.ApplicationRecord, error) {
	procs, err := p.source.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	records := make([]domain.ApplicationRecord, 0, len(procs))
	skipped := 0
	for _, proc := range procs {
		if proc.Exe == "" {
			skipped++
			continue
		}
		pid := proc.PID
		records = append(records, domain.ApplicationRecord{
			Name: proc.Name,
			Path: proc.Exe,
			PID:  &pid,
		})
	}

	p.logger.Debug("process table scanned",
		zap.Int("processes", len(procs)),
		zap.Int("unresolved", skipped))

	return DedupByPath(records), nil
}

// DedupByPath sorts records by lowercased path and keeps the first record of
// every run of equal keys. Records with an empty path are dropped.
func DedupByPath(records []domain.ApplicationRecord) []domain.ApplicationRecord {
	sorted := make([]domain.ApplicationRecord, 0, len(records))
	for _, r := range records {
		if r.Path != "" {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})

	out := sorted[:0]
	for i, r := range sorted {
		if i > 0 && r.Key() == out[len(out)-1].Key() {
			continue
		}
		out = append(out, r)
	}
	return out
}
