// Package daemon implements the long-running monitor.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
	"github.com/eliteGoblin/focusd/neuguard/internal/policy"
	"github.com/eliteGoblin/focusd/neuguard/internal/usecase"
)

const stopNotifyTimeout = 10 * time.Second

// WebsiteApplier rewrites the managed hosts region.
type WebsiteApplier interface {
	Apply(domains []string) error
}

// Syncer recomputes the active blocklist and hosts region.
type Syncer interface {
	Sync(ctx context.Context) (*usecase.SyncResult, error)
}

// MonitorConfig holds monitor configuration.
type MonitorConfig struct {
	ScanInterval time.Duration // How often to enforce the blocklist
	WebhookURL   string        // Empty disables start/stop notifications
	Domains      []string      // Applied once on start; empty leaves the hosts file alone
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{ScanInterval: policy.DefaultScanInterval}
}

// Monitor enforces the blocklist on a schedule until its context ends.
type Monitor struct {
	config   MonitorConfig
	enforcer domain.Enforcer
	websites WebsiteApplier
	notifier domain.Notifier
	activity domain.ActivityLog
	syncer   Syncer // Set via WithSyncer
	logger   *zap.Logger
}

// NewMonitor creates a monitor. websites, notifier and activity may be nil.
func NewMonitor(
	config MonitorConfig,
	enforcer domain.Enforcer,
	websites WebsiteApplier,
	notifier domain.Notifier,
	activity domain.ActivityLog,
	logger *zap.Logger,
) *Monitor {
	if config.ScanInterval <= 0 {
		config.ScanInterval = policy.DefaultScanInterval
	}
	return &Monitor{
		config:   config,
		enforcer: enforcer,
		websites: websites,
		notifier: notifier,
		activity: activity,
		logger:   logger,
	}
}

// WithSyncer makes the monitor sync rules before every enforcement pass.
// config.Domains is ignored while a syncer is set.
func (m *Monitor) WithSyncer(s Syncer) *Monitor {
	m.syncer = s
	return m
}

// Run starts the monitor loop.
// This blocks until context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", zap.Duration("interval", m.config.ScanInterval))
	m.record(domain.EventMonitoringStarted, "")
	m.notify(ctx, "Monitoring started.")

	if m.syncer == nil {
		m.applyWebsites()
	}

	// Run enforcement immediately on startup
	m.tick(ctx)

	ticker := time.NewTicker(m.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping")
			m.record(domain.EventMonitoringStopped, "")
			stopCtx, cancel := context.WithTimeout(context.Background(), stopNotifyTimeout)
			m.notify(stopCtx, "Monitoring stopped.")
			cancel()
			return ctx.Err()

		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) applyWebsites() {
	if m.websites == nil || len(m.config.Domains) == 0 {
		return
	}
	if err := m.websites.Apply(m.config.Domains); err != nil {
		if errors.Is(err, usecase.ErrElevationRequired) {
			m.logger.Warn("website blocking skipped: run as administrator to edit the hosts file")
		} else {
			m.logger.Error("failed to apply website blocks", zap.Error(err))
		}
		return
	}
	m.record(domain.EventWebsitesApplied, fmt.Sprintf("%d domains blocked", len(m.config.Domains)))
}

func (m *Monitor) tick(ctx context.Context) {
	if m.syncer != nil {
		if _, err := m.syncer.Sync(ctx); err != nil {
			m.logger.Error("rule sync failed", zap.Error(err))
		}
	}
	m.runEnforcement(ctx)
}

func (m *Monitor) runEnforcement(ctx context.Context) {
	m.logger.Debug("running enforcement")

	result, err := m.enforcer.Enforce(ctx)
	if err != nil {
		m.logger.Error("enforcement failed", zap.Error(err))
		return
	}

	if len(result.KilledPIDs) > 0 || len(result.Errors) > 0 {
		m.logger.Info("enforcement completed",
			zap.Int("processes_killed", len(result.KilledPIDs)),
			zap.Int("errors", len(result.Errors)),
			zap.Int64("duration_ms", result.DurationMs))
	}
}

func (m *Monitor) notify(ctx context.Context, message string) {
	if m.notifier == nil || m.config.WebhookURL == "" {
		return
	}
	if err := m.notifier.Notify(ctx, m.config.WebhookURL, message); err != nil {
		m.logger.Warn("notification failed", zap.Error(err))
	}
}

func (m *Monitor) record(t domain.ActivityEventType, reason string) {
	if m.activity == nil {
		return
	}
	if err := m.activity.Append(domain.ActivityEvent{Type: t, Reason: reason}); err != nil {
		m.logger.Warn("failed to record activity", zap.Error(err))
	}
}
