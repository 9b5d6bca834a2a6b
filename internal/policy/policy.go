// Package policy holds the literal heuristics the engine applies: installer
// denylists, browser names, platform install roots, game-library detection
// and website categories.
//
// The lists are matched by plain substring on lowercased input. False
// positives (an application genuinely named "Setup Wizard") are a known
// limitation of the list-based approach.
package policy

import (
	"strings"
	"time"
)

// DefaultProcessCacheTTL bounds how long a running-process snapshot is served.
const DefaultProcessCacheTTL = 2 * time.Second

// DefaultScanInterval is how often the monitor enforces the blocklist.
const DefaultScanInterval = 5 * time.Second

// DefaultWarnCooldown is the minimum gap between two violation reports for the same app.
const DefaultWarnCooldown = time.Minute

// InstallerDenylist marks maintenance binaries that are not user applications.
var InstallerDenylist = []string{
	"uninstall",
	"unins000",
	"setup",
	"installer",
}

// BrowserNames are matched against lowercased process names.
var BrowserNames = []string{
	"chrome.exe",
	"firefox.exe",
	"msedge.exe",
	"opera.exe",
	"brave.exe",
	"vivaldi.exe",
	"safari",
}

// IsMaintenanceBinary reports whether path contains any denylisted marker.
func IsMaintenanceBinary(path string) bool {
	return containsAny(strings.ToLower(path), InstallerDenylist)
}

// IsBrowser reports whether a process name matches a known browser.
func IsBrowser(name string) bool {
	return containsAny(strings.ToLower(name), BrowserNames)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
