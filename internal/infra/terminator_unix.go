//go:build !windows

package infra

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// TerminatorImpl shells out to `kill -9` and reports its exit status.
type TerminatorImpl struct {
	cmdRunner domain.CommandRunner
}

// NewTerminator creates the platform process terminator.
func NewTerminator() *TerminatorImpl {
	return &TerminatorImpl{cmdRunner: &RealCommandRunner{}}
}

// NewTerminatorWithRunner creates a terminator with an injectable runner (for testing).
func NewTerminatorWithRunner(runner domain.CommandRunner) *TerminatorImpl {
	return &TerminatorImpl{cmdRunner: runner}
}

// Kill sends SIGKILL to pid.
func (t *TerminatorImpl) Kill(pid uint32) (bool, error) {
	out, err := t.cmdRunner.Output("kill", "-9", strconv.FormatUint(uint64(pid), 10))
	if err != nil {
		msg := strings.TrimSpace(string(out))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			msg = strings.TrimSpace(string(exitErr.Stderr))
		}
		if msg == "" {
			msg = err.Error()
		}
		return false, fmt.Errorf("%w: kill %d: %s", ErrTerminateFailed, pid, msg)
	}
	return true, nil
}

// Ensure TerminatorImpl implements domain.ProcessTerminator.
var _ domain.ProcessTerminator = (*TerminatorImpl)(nil)
