package domain

import (
	"context"
	"errors"
	"io/fs"
)

// ErrSecretNotFound is returned by SecretStore.GetSecret for an unknown key.
var ErrSecretNotFound = errors.New("secret not found")

// ProcessSource snapshots the OS process table.
// Implementation: uses gopsutil for cross-platform support.
type ProcessSource interface {
	// Processes returns every visible process. Rows whose executable
	// cannot be resolved carry an empty Exe.
	Processes() ([]ProcessInfo, error)
}

// ProcessTerminator requests termination of a process from the OS.
// Not-found and permission failures are reported as the same generic error.
type ProcessTerminator interface {
	Kill(pid uint32) (bool, error)
}

// UninstallSource enumerates the OS "installed software" registrations.
// On platforms without such a registry the implementation returns nothing.
type UninstallSource interface {
	Entries() ([]UninstallEntry, error)
}

// FileSystemManager handles the filesystem reads discovery needs.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// IsFile checks if a path exists and is a regular file.
	IsFile(path string) bool

	// ReadDir lists a single directory without recursion.
	ReadDir(path string) ([]fs.DirEntry, error)

	// ReadFile returns the full content of a file.
	ReadFile(path string) ([]byte, error)

	// ExpandHome expands ~ to the user's home directory.
	ExpandHome(path string) string
}

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
}

// DNSFlusher clears the OS resolver cache.
type DNSFlusher interface {
	Flush() error
}

// Notifier posts status messages to an operator-configured webhook.
type Notifier interface {
	// Notify sends message to webhookURL. An empty URL is a silent no-op.
	Notify(ctx context.Context, webhookURL, message string) error
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// SecretStore provides encrypted persistent storage for secrets
// such as the PIN hash.
type SecretStore interface {
	// GetSecret retrieves a secret by key, or fails with ErrSecretNotFound.
	GetSecret(key string) (string, error)

	// SetSecret stores a secret.
	SetSecret(key, value string) error

	// Close releases resources (e.g., database connection).
	Close() error
}

// ActivityLog persists enforcement history.
type ActivityLog interface {
	// Append records an event, trimming the oldest beyond the retention limit.
	Append(event ActivityEvent) error

	// Recent returns up to limit events, newest first.
	Recent(limit int) ([]ActivityEvent, error)
}

// Enforcer terminates blocked running processes.
type Enforcer interface {
	// Enforce runs one enforcement pass.
	Enforce(ctx context.Context) (*EnforcementResult, error)
}
