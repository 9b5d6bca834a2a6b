package infra

import (
	"errors"
	"os/exec"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// ErrTerminateFailed is returned for every termination failure.
// Not-found and permission-denied are not distinguished; inspect the message.
var ErrTerminateFailed = errors.New("failed to kill process")

// RealCommandRunner executes real system commands
type RealCommandRunner struct{}

// Run executes a command and waits for it to complete
func (r *RealCommandRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Output executes a command and returns its stdout
func (r *RealCommandRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Ensure RealCommandRunner implements domain.CommandRunner.
var _ domain.CommandRunner = (*RealCommandRunner)(nil)
