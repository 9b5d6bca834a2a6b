package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockFlusher implements domain.DNSFlusher for testing
type mockFlusher struct {
	calls int
	err   error
}

func (m *mockFlusher) Flush() error {
	m.calls++
	return m.err
}

const baseHosts = "127.0.0.1 localhost\n::1 localhost\n# custom entry\n10.0.0.5 nas.lan\n"

func newHostsManager(t *testing.T, content string) (*WebsiteBlockManager, string, *mockFlusher) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	flusher := &mockFlusher{}
	return NewWebsiteBlockManager(path, flusher, zap.NewNop()), path, flusher
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestApply_WritesRegion(t *testing.T) {
	m, path, flusher := newHostsManager(t, baseHosts)

	require.NoError(t, m.Apply([]string{"example.com", " reddit.com ", "", "   "}))

	want := baseHosts + "\n" +
		BlockStartMarker + "\n" +
		"127.0.0.1 example.com\n" +
		"127.0.0.1 www.example.com\n" +
		"127.0.0.1 reddit.com\n" +
		"127.0.0.1 www.reddit.com\n" +
		BlockEndMarker + "\n"
	assert.Equal(t, want, readFile(t, path))
	assert.Equal(t, 1, flusher.calls)
}

func TestApply_Idempotent(t *testing.T) {
	m, path, _ := newHostsManager(t, baseHosts)
	domains := []string{"example.com", "youtube.com"}

	require.NoError(t, m.Apply(domains))
	first := readFile(t, path)
	require.NoError(t, m.Apply(domains))
	second := readFile(t, path)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, strings.Count(second, BlockStartMarker))
	assert.Equal(t, 1, strings.Count(second, BlockEndMarker))
}

func TestApply_ReplacesRegion(t *testing.T) {
	m, path, _ := newHostsManager(t, baseHosts)

	require.NoError(t, m.Apply([]string{"old.com"}))
	require.NoError(t, m.Apply([]string{"new.com"}))

	content := readFile(t, path)
	assert.NotContains(t, content, "old.com")
	assert.Contains(t, content, "127.0.0.1 new.com")
	assert.True(t, strings.HasPrefix(content, baseHosts))
}

func TestListRoundTrip(t *testing.T) {
	m, _, _ := newHostsManager(t, baseHosts)

	require.NoError(t, m.Apply([]string{"example.com"}))
	domains, err := m.List()

	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, domains)
}

func TestList_IgnoresEntriesOutsideRegion(t *testing.T) {
	content := "127.0.0.1 outside.com\n" + BlockStartMarker + "\n127.0.0.1 inside.com\n127.0.0.1 www.inside.com\n# note\n" + BlockEndMarker + "\n"
	m, _, _ := newHostsManager(t, content)

	domains, err := m.List()

	require.NoError(t, err)
	assert.Equal(t, []string{"inside.com"}, domains)
}

func TestRemove_PreservesContent(t *testing.T) {
	m, path, _ := newHostsManager(t, baseHosts)

	require.NoError(t, m.Apply([]string{"example.com"}))
	require.NoError(t, m.Remove())

	content := readFile(t, path)
	assert.Equal(t, baseHosts, content)
	assert.NotContains(t, content, BlockStartMarker)
	assert.NotContains(t, content, BlockEndMarker)

	domains, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestApply_MissingFileTreatedAsEmpty(t *testing.T) {
	m, path, _ := newHostsManager(t, "")

	require.NoError(t, m.Apply([]string{"example.com"}))

	content := readFile(t, path)
	assert.True(t, strings.HasPrefix(content, "\n"+BlockStartMarker+"\n"))

	require.NoError(t, m.Remove())
	assert.Equal(t, "", readFile(t, path))
}

func TestApply_FlushFailureIgnored(t *testing.T) {
	m, _, flusher := newHostsManager(t, baseHosts)
	flusher.err = errors.New("no resolver")

	assert.NoError(t, m.Apply([]string{"example.com"}))
}

func TestApply_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}
	m, path, _ := newHostsManager(t, baseHosts)
	require.NoError(t, os.Chmod(path, 0444))

	err := m.Apply([]string{"example.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrElevationRequired)
}

func TestRenderHosts_PreservesCRLF(t *testing.T) {
	in := "127.0.0.1 localhost\r\n# keep me\r\n"

	out := RenderHosts(in, []string{"example.com"})

	assert.True(t, strings.HasPrefix(out, in))
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
	assert.Equal(t, out, RenderHosts(out, []string{"example.com"}))
	assert.Equal(t, in, RenderHosts(out, nil))
}

func TestRenderHosts_UnterminatedRegion(t *testing.T) {
	in := "keep\n" + BlockStartMarker + "\n127.0.0.1 a.com\nlost\n"

	assert.Equal(t, "keep\n", RenderHosts(in, nil))
}

func TestRenderHosts_PreservesOrderAndBlankLines(t *testing.T) {
	in := "# header\n\n127.0.0.1 localhost\n\n"

	out := RenderHosts(in, []string{"a.com"})

	assert.True(t, strings.HasPrefix(out, in))
	assert.Equal(t, in, RenderHosts(out, nil))
}

func TestRenderHosts_DeduplicatesDomains(t *testing.T) {
	out := RenderHosts("", []string{"a.com", "a.com"})

	assert.Equal(t, 1, strings.Count(out, "127.0.0.1 a.com\n"))
	assert.Equal(t, []string{"a.com"}, ParseHostsBlock(out))
}
