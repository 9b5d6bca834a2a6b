package infra

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessManager_IncludesSelf(t *testing.T) {
	procs, err := NewProcessManager().Processes()
	require.NoError(t, err)
	require.NotEmpty(t, procs)

	self := uint32(os.Getpid())
	for _, p := range procs {
		if p.PID == self {
			assert.NotEmpty(t, p.Name)
			return
		}
	}
	t.Fatalf("current process %d not found", self)
}
