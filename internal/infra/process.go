// Package infra implements infrastructure concerns (process table, filesystem, registry, hosts).
package infra

import (
	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessSource using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() *ProcessManagerImpl {
	return &ProcessManagerImpl{}
}

// Processes returns one row per visible process.
// Processes that exit mid-scan or deny access keep an empty Exe.
func (pm *ProcessManagerImpl) Processes() ([]domain.ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	infos := make([]domain.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}

		exe, err := p.Exe()
		if err != nil {
			exe = ""
		}

		infos = append(infos, domain.ProcessInfo{
			PID:  uint32(p.Pid),
			Name: name,
			Exe:  exe,
		})
	}

	return infos, nil
}

// Ensure ProcessManagerImpl implements domain.ProcessSource.
var _ domain.ProcessSource = (*ProcessManagerImpl)(nil)
