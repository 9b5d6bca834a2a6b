//go:build integration && !windows

package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
	"github.com/eliteGoblin/focusd/neuguard/internal/infra"
	"github.com/eliteGoblin/focusd/neuguard/internal/usecase"
)

const sleeperName = "neu-sleeper"

// startSleeper runs a private copy of sleep so its name and path are unique
// on the host.
func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	src, err := exec.LookPath("sleep")
	if err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	bin := filepath.Join(t.TempDir(), sleeperName)
	if err := os.WriteFile(bin, data, 0755); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(bin, "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start sleeper: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return cmd
}

func TestInventory_SeesChildProcess(t *testing.T) {
	cmd := startSleeper(t)
	pid := uint32(cmd.Process.Pid)

	inventory := usecase.NewProcessInventory(infra.NewProcessManager(), zap.NewNop())
	records, err := inventory.ListRunning()
	if err != nil {
		t.Fatalf("failed to list processes: %v", err)
	}

	for _, r := range records {
		if r.PID != nil && *r.PID == pid {
			if r.Path == "" {
				t.Error("expected executable path for sleeper")
			}
			return
		}
	}
	t.Errorf("sleeper %d not found in %d records", pid, len(records))
}

func TestEnforcer_KillsBlockedChild(t *testing.T) {
	cmd := startSleeper(t)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	logger := zap.NewNop()
	cache := usecase.NewSnapshotCache(usecase.NewProcessInventory(infra.NewProcessManager(), logger), 0)
	blocklist := usecase.NewBlocklistStore(sleeperName)
	enforcer := usecase.NewEnforcer(cache, blocklist, infra.NewTerminator(), logger)

	result, err := enforcer.Enforce(context.Background())
	if err != nil {
		t.Fatalf("enforcement failed: %v", err)
	}
	if len(result.KilledPIDs) != 1 {
		t.Fatalf("expected 1 killed pid, got %v", result.KilledPIDs)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sleeper still running after enforcement")
	}
}

func TestEncryptedStore_PersistsAcrossRestarts(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "neuguard-store-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store1, err := infra.OpenEncryptedStore(tmpDir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store1.SetSecret(infra.SecretKeyPINHash, "hash"); err != nil {
		t.Fatalf("failed to set secret: %v", err)
	}
	if err := store1.Append(domain.ActivityEvent{Type: domain.EventMonitoringStarted}); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	store1.Close()

	store2, err := infra.OpenEncryptedStore(tmpDir)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store2.Close()

	got, err := store2.GetSecret(infra.SecretKeyPINHash)
	if err != nil || got != "hash" {
		t.Errorf("expected persisted secret, got %q (%v)", got, err)
	}
	events, err := store2.Recent(10)
	if err != nil || len(events) != 1 {
		t.Errorf("expected 1 persisted event, got %d (%v)", len(events), err)
	}
}
