package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

const (
	// BlockStartMarker opens the managed region of the hosts file.
	BlockStartMarker = "# NEU_BLOCK_START - Do not edit this section manually"
	// BlockEndMarker closes the managed region of the hosts file.
	BlockEndMarker = "# NEU_BLOCK_END"

	loopbackAddr = "127.0.0.1"
)

// ErrElevationRequired is returned when the hosts file cannot be opened for writing.
var ErrElevationRequired = errors.New("administrator privileges are required to modify the hosts file")

// WebsiteBlockManager keeps one marker-delimited block of loopback redirects
// in the hosts file.
//
// Apply and Remove are read-modify-write cycles and are not synchronized;
// callers must serialize them.
type WebsiteBlockManager struct {
	hostsPath string
	flusher   domain.DNSFlusher
	logger    *zap.Logger
}

// NewWebsiteBlockManager creates a manager for the hosts file at hostsPath.
func NewWebsiteBlockManager(hostsPath string, flusher domain.DNSFlusher, logger *zap.Logger) *WebsiteBlockManager {
	return &WebsiteBlockManager{hostsPath: hostsPath, flusher: flusher, logger: logger}
}

// HostsPath returns the managed file.
func (m *WebsiteBlockManager) HostsPath() string {
	return m.hostsPath
}

// Apply replaces the managed region with redirects for domains. An empty
// list removes the region entirely.
func (m *WebsiteBlockManager) Apply(domains []string) error {
	content, err := m.read()
	if err != nil {
		return err
	}

	if err := m.write(RenderHosts(content, domains)); err != nil {
		return err
	}

	m.logger.Info("hosts file updated",
		zap.String("path", m.hostsPath),
		zap.Int("domains", len(cleanDomains(domains))))

	if m.flusher != nil {
		if err := m.flusher.Flush(); err != nil {
			m.logger.Debug("dns cache flush failed", zap.Error(err))
		}
	}
	return nil
}

// Remove deletes the managed region.
func (m *WebsiteBlockManager) Remove() error {
	return m.Apply(nil)
}

// List returns the bare domains currently blocked.
func (m *WebsiteBlockManager) List() ([]string, error) {
	content, err := m.read()
	if err != nil {
		return nil, err
	}
	return ParseHostsBlock(content), nil
}

// read treats a file that cannot be opened as empty. Only a failure after a
// successful open is returned.
func (m *WebsiteBlockManager) read() (string, error) {
	f, err := os.Open(m.hostsPath)
	if err != nil {
		m.logger.Debug("hosts file not readable, treating as empty",
			zap.String("path", m.hostsPath),
			zap.Error(err))
		return "", nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read hosts file: %w", err)
	}
	return string(data), nil
}

func (m *WebsiteBlockManager) write(content string) error {
	f, err := os.OpenFile(m.hostsPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrElevationRequired, m.hostsPath)
		}
		return fmt.Errorf("failed to open hosts file for writing: %w", err)
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write hosts file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write hosts file: %w", err)
	}
	return nil
}

// RenderHosts returns content with the managed region replaced by redirects
// for domains. Lines outside the region are kept in order. The blank line
// written before the region is removed together with it, so rendering the
// output again with the same domains yields identical bytes. The line ending
// style of content is preserved.
func RenderHosts(content string, domains []string) string {
	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}

	var kept []string
	inRegion := false
	for _, line := range splitLines(content) {
		switch {
		case strings.Contains(line, BlockStartMarker):
			inRegion = true
			if n := len(kept); n > 0 && kept[n-1] == "" {
				kept = kept[:n-1]
			}
		case inRegion:
			if strings.Contains(line, BlockEndMarker) {
				inRegion = false
			}
		default:
			kept = append(kept, line)
		}
	}

	if cleaned := cleanDomains(domains); len(cleaned) > 0 {
		kept = append(kept, "", BlockStartMarker)
		for _, d := range cleaned {
			kept = append(kept,
				loopbackAddr+" "+d,
				loopbackAddr+" www."+d)
		}
		kept = append(kept, BlockEndMarker)
	}

	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, newline) + newline
}

// ParseHostsBlock extracts the bare domains redirected inside the managed region.
func ParseHostsBlock(content string) []string {
	var domains []string
	inRegion := false
	for _, line := range splitLines(content) {
		switch {
		case strings.Contains(line, BlockStartMarker):
			inRegion = true
		case strings.Contains(line, BlockEndMarker):
			inRegion = false
		case inRegion && strings.HasPrefix(line, loopbackAddr):
			fields := strings.Fields(line)
			if len(fields) < 2 || strings.HasPrefix(fields[1], "www.") {
				continue
			}
			domains = append(domains, fields[1])
		}
	}
	return domains
}

// splitLines splits on LF, strips CR, and ignores the empty element after a
// final newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// cleanDomains trims, drops blanks and removes duplicates, keeping order.
func cleanDomains(domains []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
