package infra

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDetectExecMode_MatchesPrivileges(t *testing.T) {
	config := DetectExecMode()

	if IsElevated() {
		if config.Mode != ExecModeSystem {
			t.Errorf("expected system mode when elevated, got %s", config.Mode)
		}
	} else if config.Mode != ExecModeUser {
		t.Errorf("expected user mode when not elevated, got %s", config.Mode)
	}

	if config.IsElevated != IsElevated() {
		t.Errorf("IsElevated mismatch: %v", config.IsElevated)
	}
}

func TestExecModeConfig_PathsAreConsistent(t *testing.T) {
	config := DetectExecMode()

	if filepath.Dir(config.ConfigPath) != config.DataDir {
		t.Errorf("ConfigPath (%s) should be inside DataDir (%s)", config.ConfigPath, config.DataDir)
	}
	if filepath.Dir(config.LogPath) != config.DataDir {
		t.Errorf("LogPath (%s) should be inside DataDir (%s)", config.LogPath, config.DataDir)
	}
	if config.HostsPath != DefaultHostsPath() {
		t.Errorf("HostsPath = %s, want %s", config.HostsPath, DefaultHostsPath())
	}
	if runtime.GOOS != "windows" && filepath.Base(config.DataDir) != ".neuguard" {
		t.Errorf("DataDir should end with .neuguard, got %s", config.DataDir)
	}
}

func TestExecMode_String(t *testing.T) {
	tests := []struct {
		mode     ExecMode
		expected string
	}{
		{ExecModeUser, "user (non-elevated)"},
		{ExecModeSystem, "system (elevated, hosts file writable)"},
		{ExecMode("invalid"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := tt.mode.String(); got != tt.expected {
				t.Errorf("ExecMode.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetRealUserHome_WithoutSudo(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, _ := os.UserHomeDir()

	if got := GetRealUserHome(); got != home {
		t.Errorf("GetRealUserHome() = %q, want %q", got, home)
	}
}

func TestDefaultHostsPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path only")
	}
	if got := DefaultHostsPath(); got != "/etc/hosts" {
		t.Errorf("DefaultHostsPath() = %q", got)
	}
}
