package infra

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// ExecMode represents the privilege level the process runs with.
type ExecMode string

const (
	// ExecModeUser cannot rewrite the hosts file.
	ExecModeUser ExecMode = "user"
	// ExecModeSystem runs elevated (root / Administrator).
	ExecModeSystem ExecMode = "system"
)

// ExecModeConfig holds paths and settings based on execution mode.
type ExecModeConfig struct {
	Mode       ExecMode
	DataDir    string // Encrypted store and key live here
	ConfigPath string // Default YAML config location
	LogPath    string // Daemon log file
	HostsPath  string // Platform hosts file
	IsElevated bool
}

// DetectExecMode determines the execution mode from the process privileges.
func DetectExecMode() *ExecModeConfig {
	elevated := IsElevated()
	dataDir := filepath.Join(GetRealUserHome(), ".neuguard")
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			dataDir = filepath.Join(appData, "neuguard")
		}
	}

	mode := ExecModeUser
	if elevated {
		mode = ExecModeSystem
	}

	return &ExecModeConfig{
		Mode:       mode,
		DataDir:    dataDir,
		ConfigPath: filepath.Join(dataDir, "config.yaml"),
		LogPath:    filepath.Join(dataDir, "neuguard.log"),
		HostsPath:  DefaultHostsPath(),
		IsElevated: elevated,
	}
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeSystem:
		return "system (elevated, hosts file writable)"
	case ExecModeUser:
		return "user (non-elevated)"
	default:
		return "unknown"
	}
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
// Under sudo, os.UserHomeDir() returns /var/root, so we use SUDO_USER to find the real user.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}
