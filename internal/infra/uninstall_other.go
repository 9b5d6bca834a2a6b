//go:build !windows

package infra

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// NoopUninstallSource is used where the OS keeps no uninstall registry.
type NoopUninstallSource struct{}

// NewUninstallSource creates the platform uninstall-metadata source.
func NewUninstallSource(_ *zap.Logger) *NoopUninstallSource {
	return &NoopUninstallSource{}
}

// Entries always returns nothing.
func (s *NoopUninstallSource) Entries() ([]domain.UninstallEntry, error) {
	return nil, nil
}

// Ensure NoopUninstallSource implements domain.UninstallSource.
var _ domain.UninstallSource = (*NoopUninstallSource)(nil)
