// Package usecase contains application business logic.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
	"github.com/eliteGoblin/focusd/neuguard/internal/infra"
)

// SnapshotSource serves the running-process list.
type SnapshotSource interface {
	GetOrRefresh() (domain.ProcessSnapshot, error)
	Invalidate()
}

// EnforcerImpl implements domain.Enforcer.
type EnforcerImpl struct {
	snapshots  SnapshotSource
	processes  domain.ProcessSource // Set via WithProcessSource
	blocklist  *BlocklistStore
	terminator domain.ProcessTerminator
	logger     *zap.Logger

	notifier   domain.Notifier // Set via WithNotifier
	webhookURL string
	cooldown   time.Duration
	activity   domain.ActivityLog // Set via WithActivityLog

	now        func() time.Time
	mu         sync.Mutex
	lastWarned map[string]time.Time
}

// NewEnforcer creates an enforcer that kills running processes whose name is blocked.
func NewEnforcer(
	snapshots SnapshotSource,
	blocklist *BlocklistStore,
	terminator domain.ProcessTerminator,
	logger *zap.Logger,
) *EnforcerImpl {
	return &EnforcerImpl{
		snapshots:  snapshots,
		blocklist:  blocklist,
		terminator: terminator,
		logger:     logger,
		now:        time.Now,
		lastWarned: make(map[string]time.Time),
	}
}

// WithNotifier reports violations to webhookURL, at most once per app per cooldown.
func (e *EnforcerImpl) WithNotifier(n domain.Notifier, webhookURL string, cooldown time.Duration) *EnforcerImpl {
	e.notifier = n
	e.webhookURL = webhookURL
	e.cooldown = cooldown
	return e
}

// WithActivityLog records every kill in log.
func (e *EnforcerImpl) WithActivityLog(log domain.ActivityLog) *EnforcerImpl {
	e.activity = log
	return e
}

// WithProcessSource makes Enforce read the full process table from src
// instead of the path-deduplicated snapshot, so every process of a blocked
// executable is terminated in the same pass.
func (e *EnforcerImpl) WithProcessSource(src domain.ProcessSource) *EnforcerImpl {
	e.processes = src
	return e
}

// WithClock overrides the time source (for testing).
func (e *EnforcerImpl) WithClock(now func() time.Time) *EnforcerImpl {
	e.now = now
	return e
}

// Enforce runs one pass over the running processes. Without a process
// source it works on the cached snapshot, which holds one PID per
// executable path; other processes of the same executable are then
// terminated on later passes.
func (e *EnforcerImpl) Enforce(ctx context.Context) (*domain.EnforcementResult, error) {
	start := e.now()
	result := &domain.EnforcementResult{
		BlockedNames: make([]string, 0),
		KilledPIDs:   make([]uint32, 0),
		Notified:     make([]string, 0),
		Errors:       make([]error, 0),
		ExecutedAt:   start,
	}

	records, err := e.running()
	if err != nil {
		return nil, fmt.Errorf("failed to list running processes: %w", err)
	}

	seen := make(map[string]bool)
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if !e.matches(rec.Name) || rec.PID == nil {
			continue
		}

		name := strings.ToLower(rec.Name)
		if !seen[name] {
			seen[name] = true
			result.BlockedNames = append(result.BlockedNames, name)
		}

		pid := *rec.PID
		killed, err := e.terminator.Kill(pid)
		if err != nil {
			e.logger.Warn("failed to kill process",
				zap.String("name", rec.Name),
				zap.Uint32("pid", pid),
				zap.Error(err))
			result.Errors = append(result.Errors, err)
			continue
		}
		if !killed {
			continue
		}

		e.logger.Info("killed blocked process",
			zap.String("name", rec.Name),
			zap.Uint32("pid", pid),
			zap.String("path", rec.Path))
		result.KilledPIDs = append(result.KilledPIDs, pid)
		e.record(domain.ActivityEvent{
			Type:   domain.EventProcessKilled,
			Reason: fmt.Sprintf("Blocked app %s (pid %d) was terminated", rec.Name, pid),
		})
	}

	if len(result.KilledPIDs) > 0 {
		e.snapshots.Invalidate()
	}

	for _, name := range result.BlockedNames {
		if e.warn(ctx, name) {
			result.Notified = append(result.Notified, name)
		}
	}

	result.DurationMs = e.now().Sub(start).Milliseconds()
	return result, nil
}

func (e *EnforcerImpl) running() ([]domain.ApplicationRecord, error) {
	if e.processes == nil {
		snap, err := e.snapshots.GetOrRefresh()
		return snap.Records, err
	}
	procs, err := e.processes.Processes()
	if err != nil {
		return nil, err
	}
	records := make([]domain.ApplicationRecord, 0, len(procs))
	for _, p := range procs {
		pid := p.PID
		records = append(records, domain.ApplicationRecord{Name: p.Name, Path: p.Exe, PID: &pid})
	}
	return records, nil
}

// matches checks the process name with and without the .exe suffix.
func (e *EnforcerImpl) matches(name string) bool {
	lower := strings.ToLower(name)
	return e.blocklist.IsBlocked(lower) || e.blocklist.IsBlocked(strings.TrimSuffix(lower, ".exe"))
}

func (e *EnforcerImpl) warn(ctx context.Context, name string) bool {
	if e.notifier == nil || e.webhookURL == "" {
		return false
	}

	now := e.now()
	e.mu.Lock()
	last, ok := e.lastWarned[name]
	if ok && now.Sub(last) < e.cooldown {
		e.mu.Unlock()
		return false
	}
	e.mu.Unlock()

	msg := fmt.Sprintf("Blocked application %q was opened and has been terminated.", name)
	if err := e.notifier.Notify(ctx, e.webhookURL, msg); err != nil {
		var rl *infra.RateLimitError
		if errors.As(err, &rl) {
			e.logger.Debug("violation report rate limited", zap.Duration("wait", rl.Wait))
		} else {
			e.logger.Warn("failed to report violation", zap.String("name", name), zap.Error(err))
		}
		return false
	}

	e.mu.Lock()
	e.lastWarned[name] = now
	e.mu.Unlock()
	return true
}

func (e *EnforcerImpl) record(event domain.ActivityEvent) {
	if e.activity == nil {
		return
	}
	if err := e.activity.Append(event); err != nil {
		e.logger.Warn("failed to record activity", zap.Error(err))
	}
}

// Ensure EnforcerImpl implements domain.Enforcer.
var _ domain.Enforcer = (*EnforcerImpl)(nil)
