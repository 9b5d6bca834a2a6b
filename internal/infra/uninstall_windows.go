//go:build windows

package infra

import (
	"go.uber.org/zap"
	"golang.org/x/sys/windows/registry"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

const uninstallKeyPath = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`

// uninstallRoot is one "installed software" listing location.
type uninstallRoot struct {
	root   registry.Key
	access uint32
	name   string
}

// uninstallRoots covers machine-wide and per-user scopes in both registry views.
var uninstallRoots = []uninstallRoot{
	{registry.LOCAL_MACHINE, registry.WOW64_64KEY, "HKLM64"},
	{registry.LOCAL_MACHINE, registry.WOW64_32KEY, "HKLM32"},
	{registry.CURRENT_USER, registry.WOW64_64KEY, "HKCU64"},
	{registry.CURRENT_USER, registry.WOW64_32KEY, "HKCU32"},
}

// RegistryUninstallSource reads uninstall subkeys from the Windows registry.
type RegistryUninstallSource struct {
	logger *zap.Logger
}

// NewUninstallSource creates the platform uninstall-metadata source.
func NewUninstallSource(logger *zap.Logger) *RegistryUninstallSource {
	return &RegistryUninstallSource{logger: logger}
}

// Entries returns every subkey with a non-empty DisplayName.
// Unreadable keys are skipped.
func (s *RegistryUninstallSource) Entries() ([]domain.UninstallEntry, error) {
	var entries []domain.UninstallEntry

	for _, r := range uninstallRoots {
		key, err := registry.OpenKey(r.root, uninstallKeyPath, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE|r.access)
		if err != nil {
			s.logger.Debug("skipping uninstall root", zap.String("root", r.name), zap.Error(err))
			continue
		}

		names, err := key.ReadSubKeyNames(-1)
		if err != nil {
			s.logger.Debug("failed to enumerate uninstall subkeys", zap.String("root", r.name), zap.Error(err))
			key.Close()
			continue
		}

		for _, name := range names {
			entry, ok := s.readEntry(key, name, r.access)
			if ok {
				entries = append(entries, entry)
			}
		}
		key.Close()
	}

	return entries, nil
}

func (s *RegistryUninstallSource) readEntry(parent registry.Key, name string, access uint32) (domain.UninstallEntry, bool) {
	sub, err := registry.OpenKey(parent, name, registry.QUERY_VALUE|access)
	if err != nil {
		return domain.UninstallEntry{}, false
	}
	defer sub.Close()

	displayName, _, err := sub.GetStringValue("DisplayName")
	if err != nil || displayName == "" {
		return domain.UninstallEntry{}, false
	}

	icon, _, _ := sub.GetStringValue("DisplayIcon")
	location, _, _ := sub.GetStringValue("InstallLocation")

	return domain.UninstallEntry{
		DisplayName:     displayName,
		DisplayIcon:     icon,
		InstallLocation: location,
	}, true
}

// Ensure RegistryUninstallSource implements domain.UninstallSource.
var _ domain.UninstallSource = (*RegistryUninstallSource)(nil)
