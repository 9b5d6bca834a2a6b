package policy

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// ProgramRootDepth is how many directory levels below a program root are scanned.
	ProgramRootDepth = 2
	// LibraryRootDepth is how many directory levels below a game library are scanned.
	LibraryRootDepth = 1
)

// Platform captures what "executable" and "install root" mean on one OS.
type Platform struct {
	GOOS          string
	ExecutableExt string // ".exe" on Windows, empty where the exec bit decides
	ProgramRoots  []string
}

// CurrentPlatform describes the running OS.
func CurrentPlatform() Platform {
	home, _ := os.UserHomeDir()
	return PlatformFor(runtime.GOOS, home, os.Getenv)
}

// PlatformFor builds the platform description for goos.
func PlatformFor(goos, home string, getenv func(string) string) Platform {
	switch goos {
	case "windows":
		var roots []string
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			if v := getenv(env); v != "" {
				roots = append(roots, v)
			}
		}
		if len(roots) == 0 {
			roots = []string{`C:\Program Files`, `C:\Program Files (x86)`}
		}
		if local := getenv("LOCALAPPDATA"); local != "" {
			roots = append(roots, filepath.Join(local, "Programs"))
		}
		return Platform{GOOS: goos, ExecutableExt: ".exe", ProgramRoots: roots}
	case "darwin":
		return Platform{GOOS: goos, ProgramRoots: []string{
			"/Applications",
			filepath.Join(home, "Applications"),
		}}
	default:
		return Platform{GOOS: goos, ProgramRoots: []string{
			"/opt",
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, "Applications"),
		}}
	}
}

// IsExecutable reports whether a directory entry is an application candidate.
func (p Platform) IsExecutable(name string, mode fs.FileMode) bool {
	if mode.IsDir() {
		return false
	}
	if p.ExecutableExt != "" {
		return strings.EqualFold(filepath.Ext(name), p.ExecutableExt)
	}
	return mode.IsRegular() && mode.Perm()&0o111 != 0
}

// HasExecutableExt reports whether path ends in the executable extension.
// Always true where no extension is defined.
func (p Platform) HasExecutableExt(path string) bool {
	if p.ExecutableExt == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(path), strings.ToLower(p.ExecutableExt))
}

// DisplayName is the file's base name without its extension.
func DisplayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
