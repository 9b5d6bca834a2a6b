// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"strings"
	"time"
)

// ApplicationRecord describes either a running process or an installed application.
// PID is set only for running-process records.
type ApplicationRecord struct {
	Name string  `json:"name"`
	Path string  `json:"path"`
	PID  *uint32 `json:"pid,omitempty"`
}

// Key returns the deduplication key: the lowercased path.
func (r ApplicationRecord) Key() string {
	return strings.ToLower(r.Path)
}

// IsRunning reports whether the record was produced from the process table.
func (r ApplicationRecord) IsRunning() bool {
	return r.PID != nil
}

// ProcessInfo is one raw row of the OS process table.
// Exe is empty when the executable path could not be resolved.
type ProcessInfo struct {
	PID  uint32
	Name string
	Exe  string
}

// ProcessSnapshot is a deduplicated view of the process table at CapturedAt.
type ProcessSnapshot struct {
	Records    []ApplicationRecord
	CapturedAt time.Time
}

// UninstallEntry is the subset of an OS "installed software" registration
// needed to locate the application's executable.
type UninstallEntry struct {
	DisplayName     string
	DisplayIcon     string
	InstallLocation string
}

// EnforcementResult captures what happened during a single enforcement run.
type EnforcementResult struct {
	BlockedNames []string // Blocked names seen running during this run
	KilledPIDs   []uint32
	Notified     []string // Names reported to the webhook
	Errors       []error
	ExecutedAt   time.Time
	DurationMs   int64
}

// ActivityEventType classifies entries in the activity history.
type ActivityEventType string

const (
	EventProcessKilled     ActivityEventType = "process_killed"
	EventMonitoringStarted ActivityEventType = "monitoring_started"
	EventMonitoringStopped ActivityEventType = "monitoring_stopped"
	EventWebsitesApplied   ActivityEventType = "websites_applied"
	EventWebsitesRemoved   ActivityEventType = "websites_removed"
	EventKillswitch        ActivityEventType = "killswitch_activated"
	EventBlockingResumed   ActivityEventType = "blocking_resumed"
)

// ActivityEvent is one persisted entry of the activity history.
type ActivityEvent struct {
	ID     string            `json:"id"`
	Type   ActivityEventType `json:"type"`
	Reason string            `json:"reason,omitempty"`
	Time   time.Time         `json:"time"`
}
