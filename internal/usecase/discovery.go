package usecase

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
	"github.com/eliteGoblin/focusd/neuguard/internal/policy"
)

// LibraryRoots lists game-library folders to scan.
type LibraryRoots interface {
	Roots() []string
}

// InstalledDiscovery builds the installed-application catalog from a bounded
// filesystem walk and the OS uninstall registry.
type InstalledDiscovery struct {
	fs        domain.FileSystemManager
	uninstall domain.UninstallSource
	libraries LibraryRoots
	platform  policy.Platform
	logger    *zap.Logger
}

// NewInstalledDiscovery creates a discovery over the given sources.
func NewInstalledDiscovery(
	fsm domain.FileSystemManager,
	uninstall domain.UninstallSource,
	libraries LibraryRoots,
	platform policy.Platform,
	logger *zap.Logger,
) *InstalledDiscovery {
	return &InstalledDiscovery{
		fs:        fsm,
		uninstall: uninstall,
		libraries: libraries,
		platform:  platform,
		logger:    logger,
	}
}

// ListInstalled runs both producers concurrently and merges their output,
// deduplicated by executable path. Unreadable directories and registry keys
// are skipped.
func (d *InstalledDiscovery) ListInstalled(ctx context.Context) ([]domain.ApplicationRecord, error) {
	var scanned, registered []domain.ApplicationRecord

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scanned = d.scanFilesystem(ctx)
		return nil
	})
	g.Go(func() error {
		registered = d.scanRegistry(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.logger.Debug("installed applications discovered",
		zap.Int("filesystem", len(scanned)),
		zap.Int("registry", len(registered)))

	return DedupByPath(append(scanned, registered...)), nil
}

func (d *InstalledDiscovery) scanFilesystem(ctx context.Context) []domain.ApplicationRecord {
	var (
		mu      sync.Mutex
		records []domain.ApplicationRecord
	)
	collect := func(path string) {
		mu.Lock()
		records = append(records, domain.ApplicationRecord{Name: policy.DisplayName(path), Path: path})
		mu.Unlock()
	}

	for _, root := range d.platform.ProgramRoots {
		if ctx.Err() != nil {
			return records
		}
		d.walkRoot(root, policy.ProgramRootDepth, collect)
	}
	if d.libraries != nil {
		for _, root := range d.libraries.Roots() {
			if ctx.Err() != nil {
				return records
			}
			d.walkRoot(root, policy.LibraryRootDepth, collect)
		}
	}
	return records
}

// walkRoot visits executables at most levels directories below root.
func (d *InstalledDiscovery) walkRoot(root string, levels int, collect func(string)) {
	root = d.fs.ExpandHome(root)
	if !d.fs.Exists(root) {
		return
	}

	conf := fastwalk.Config{MaxDepth: levels + 1}
	err := fastwalk.Walk(&conf, root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if de.IsDir() {
			if path != root && componentDepth(root, path) > levels {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.isExecutable(path, de) || policy.IsMaintenanceBinary(path) {
			return nil
		}
		collect(path)
		return nil
	})
	if err != nil {
		d.logger.Debug("walk aborted", zap.String("root", root), zap.Error(err))
	}
}

// isExecutable applies the platform rule to de. Symlinks are judged by their
// target, so launcher links such as ~/.local/bin entries count.
func (d *InstalledDiscovery) isExecutable(path string, de fs.DirEntry) bool {
	if d.platform.ExecutableExt != "" {
		return d.platform.IsExecutable(de.Name(), de.Type())
	}
	var (
		info fs.FileInfo
		err  error
	)
	if de.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = de.Info()
	}
	if err != nil {
		return false
	}
	return d.platform.IsExecutable(de.Name(), info.Mode())
}

func componentDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

func (d *InstalledDiscovery) scanRegistry(ctx context.Context) []domain.ApplicationRecord {
	if d.uninstall == nil {
		return nil
	}
	entries, err := d.uninstall.Entries()
	if err != nil {
		d.logger.Warn("failed to read uninstall registry", zap.Error(err))
		return nil
	}

	var records []domain.ApplicationRecord
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if strings.TrimSpace(e.DisplayName) == "" {
			continue
		}
		path := d.resolveExecutable(e)
		if path == "" {
			continue
		}
		records = append(records, domain.ApplicationRecord{Name: e.DisplayName, Path: path})
	}
	return records
}

// resolveExecutable tries the icon reference first, then the first
// executable directly inside the install location.
func (d *InstalledDiscovery) resolveExecutable(e domain.UninstallEntry) string {
	if icon := cleanIconPath(e.DisplayIcon); icon != "" && d.acceptable(icon) {
		return icon
	}

	loc := strings.Trim(strings.TrimSpace(e.InstallLocation), `"`)
	if loc == "" {
		return ""
	}
	entries, err := d.fs.ReadDir(loc)
	if err != nil {
		d.logger.Debug("install location unreadable",
			zap.String("app", e.DisplayName),
			zap.String("path", loc),
			zap.Error(err))
		return ""
	}
	for _, de := range entries {
		candidate := filepath.Join(loc, de.Name())
		if !d.isExecutable(candidate, de) {
			continue
		}
		if d.acceptable(candidate) {
			return candidate
		}
	}
	return ""
}

func (d *InstalledDiscovery) acceptable(path string) bool {
	return d.platform.HasExecutableExt(path) &&
		!policy.IsMaintenanceBinary(path) &&
		d.fs.IsFile(path)
}

// cleanIconPath strips surrounding quotes and a trailing ",<index>" from an
// icon reference such as `"C:\App\app.exe",0`.
func cleanIconPath(icon string) string {
	icon = strings.TrimSpace(icon)
	if i := strings.LastIndex(icon, ","); i >= 0 {
		if _, err := strconv.Atoi(strings.TrimSpace(icon[i+1:])); err == nil {
			icon = icon[:i]
		}
	}
	return strings.Trim(strings.TrimSpace(icon), `"`)
}
