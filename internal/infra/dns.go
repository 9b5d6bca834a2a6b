package infra

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// DefaultHostsPath returns the platform-standard hosts file location.
func DefaultHostsPath() string {
	if runtime.GOOS == "windows" {
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return filepath.Join(root, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

// DNSFlusherImpl clears the OS resolver cache using the platform tool.
type DNSFlusherImpl struct {
	cmdRunner domain.CommandRunner
	goos      string
}

// NewDNSFlusher creates a flusher for the running platform.
func NewDNSFlusher() *DNSFlusherImpl {
	return &DNSFlusherImpl{cmdRunner: &RealCommandRunner{}, goos: runtime.GOOS}
}

// NewDNSFlusherWithDeps creates a flusher with injectable dependencies (for testing).
func NewDNSFlusherWithDeps(runner domain.CommandRunner, goos string) *DNSFlusherImpl {
	return &DNSFlusherImpl{cmdRunner: runner, goos: goos}
}

// Flush runs the resolver flush command for the platform.
func (f *DNSFlusherImpl) Flush() error {
	switch f.goos {
	case "windows":
		return f.cmdRunner.Run("ipconfig", "/flushdns")
	case "darwin":
		if err := f.cmdRunner.Run("dscacheutil", "-flushcache"); err != nil {
			return err
		}
		return f.cmdRunner.Run("killall", "-HUP", "mDNSResponder")
	default:
		return f.cmdRunner.Run("resolvectl", "flush-caches")
	}
}

// Ensure DNSFlusherImpl implements domain.DNSFlusher.
var _ domain.DNSFlusher = (*DNSFlusherImpl)(nil)
