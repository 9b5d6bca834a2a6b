package policy

import (
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// steamGamesSubdir is where Steam places installed games inside a library.
var steamGamesSubdir = filepath.Join("steamapps", "common")

// SteamLibraries locates Steam game-library folders.
type SteamLibraries struct {
	fs         domain.FileSystemManager
	installDir string
}

// NewSteamLibraries creates a detector using the platform default Steam install.
func NewSteamLibraries(fs domain.FileSystemManager, goos string) *SteamLibraries {
	return &SteamLibraries{fs: fs, installDir: DefaultSteamInstallDir(goos, fs.ExpandHome("~"))}
}

// NewSteamLibrariesWithInstallDir creates a detector for a custom Steam install (for testing).
func NewSteamLibrariesWithInstallDir(fs domain.FileSystemManager, installDir string) *SteamLibraries {
	return &SteamLibraries{fs: fs, installDir: installDir}
}

// DefaultSteamInstallDir returns where the Steam client installs by default.
func DefaultSteamInstallDir(goos, home string) string {
	switch goos {
	case "windows":
		return `C:\Program Files (x86)\Steam`
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Steam")
	default:
		return filepath.Join(home, ".local", "share", "Steam")
	}
}

// Roots returns every existing game folder: the default install's games folder
// plus one per library listed in libraryfolders.vdf.
func (s *SteamLibraries) Roots() []string {
	var roots []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := strings.ToLower(filepath.Clean(p))
		if seen[key] || !s.fs.Exists(p) {
			return
		}
		seen[key] = true
		roots = append(roots, p)
	}

	add(filepath.Join(s.installDir, steamGamesSubdir))

	manifest := filepath.Join(s.installDir, "steamapps", "libraryfolders.vdf")
	data, err := s.fs.ReadFile(manifest)
	if err != nil {
		return roots
	}
	for _, lib := range ParseLibraryFolders(string(data)) {
		add(filepath.Join(lib, steamGamesSubdir))
	}
	return roots
}

// ParseLibraryFolders extracts library paths from a libraryfolders.vdf
// document. Only `"path"`-keyed lines are read; doubled backslashes are
// unescaped.
func ParseLibraryFolders(content string) []string {
	var paths []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, `"path"`) {
			continue
		}
		value, ok := quotedValue(strings.TrimPrefix(line, `"path"`))
		if !ok || value == "" {
			continue
		}
		paths = append(paths, strings.ReplaceAll(value, `\\`, `\`))
	}
	return paths
}

// quotedValue returns the first double-quoted string in s.
func quotedValue(s string) (string, bool) {
	start := strings.Index(s, `"`)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, `"`)
	if end <= start {
		return "", false
	}
	return s[start+1 : end], true
}
