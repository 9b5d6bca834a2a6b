//go:build !windows

package infra

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCommandRunner records invocations for testing
type mockCommandRunner struct {
	calls  [][]string
	output []byte
	err    error
	errFor map[string]error
}

func (m *mockCommandRunner) Run(name string, args ...string) error {
	m.calls = append(m.calls, append([]string{name}, args...))
	if e, ok := m.errFor[name]; ok {
		return e
	}
	return m.err
}

func (m *mockCommandRunner) Output(name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	return m.output, m.err
}

func TestTerminator_Kill(t *testing.T) {
	runner := &mockCommandRunner{}
	term := NewTerminatorWithRunner(runner)

	ok, err := term.Kill(4242)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, [][]string{{"kill", "-9", "4242"}}, runner.calls)
}

func TestTerminator_KillFailure(t *testing.T) {
	runner := &mockCommandRunner{err: &exec.ExitError{Stderr: []byte("kill: (4242) - No such process\n")}}
	term := NewTerminatorWithRunner(runner)

	ok, err := term.Kill(4242)

	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTerminateFailed))
	assert.Contains(t, err.Error(), "No such process")
}

func TestTerminator_KillFailureWithoutStderr(t *testing.T) {
	runner := &mockCommandRunner{err: errors.New("exec: \"kill\": executable file not found")}
	term := NewTerminatorWithRunner(runner)

	_, err := term.Kill(1)

	require.ErrorIs(t, err, ErrTerminateFailed)
	assert.Contains(t, err.Error(), "executable file not found")
}

func TestTerminator_RealProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())

	ok, err := NewTerminator().Kill(uint32(cmd.Process.Pid))
	require.NoError(t, err)
	assert.True(t, ok)

	err = cmd.Wait()
	assert.Error(t, err, "process should have been killed")
}
