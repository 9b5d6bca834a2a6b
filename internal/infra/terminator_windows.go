//go:build windows

package infra

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// TerminatorImpl opens the process with termination rights and terminates it.
type TerminatorImpl struct{}

// NewTerminator creates the platform process terminator.
func NewTerminator() *TerminatorImpl {
	return &TerminatorImpl{}
}

// Kill terminates pid immediately. The handle is released whatever the outcome.
func (t *TerminatorImpl) Kill(pid uint32) (bool, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, pid)
	if err != nil {
		return false, fmt.Errorf("%w: failed to open process %d: %v", ErrTerminateFailed, pid, err)
	}
	defer func() { _ = windows.CloseHandle(handle) }()

	if err := windows.TerminateProcess(handle, 1); err != nil {
		return false, fmt.Errorf("%w: failed to terminate process %d: %v", ErrTerminateFailed, pid, err)
	}
	return true, nil
}

// Ensure TerminatorImpl implements domain.ProcessTerminator.
var _ domain.ProcessTerminator = (*TerminatorImpl)(nil)
