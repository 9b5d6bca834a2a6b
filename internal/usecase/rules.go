package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
	"github.com/eliteGoblin/focusd/neuguard/internal/policy"
)

// DomainResolver expands explicit domains plus category ids into one
// normalized, deduplicated domain list.
type DomainResolver func(domains, categoryIDs []string) ([]string, error)

// BlockingGate reports whether blocking was switched off by the killswitch.
type BlockingGate interface {
	BlockingPaused() (bool, error)
}

// WebsiteApplier rewrites the managed hosts region.
type WebsiteApplier interface {
	Apply(domains []string) error
}

// SyncResult describes one RuleSync pass.
type SyncResult struct {
	Paused         bool
	ActiveRules    []string
	Apps           []string
	Domains        []string
	HostsRewritten bool
}

// RuleSync keeps the blocklist and the hosts region equal to the base
// configuration plus every rule active at the current time.
type RuleSync struct {
	baseApps    []string
	baseDomains []string
	rules       []policy.Rule
	resolve     DomainResolver
	blocklist   *BlocklistStore
	websites    WebsiteApplier
	gate        BlockingGate // Set via WithGate
	activity    domain.ActivityLog
	logger      *zap.Logger
	now         func() time.Time

	mu          sync.Mutex
	lastDomains []string
	lastActive  string
}

// NewRuleSync creates a syncer. baseDomains must already be resolved.
func NewRuleSync(
	baseApps, baseDomains []string,
	rules []policy.Rule,
	resolve DomainResolver,
	blocklist *BlocklistStore,
	websites WebsiteApplier,
	logger *zap.Logger,
) *RuleSync {
	return &RuleSync{
		baseApps:    baseApps,
		baseDomains: baseDomains,
		rules:       rules,
		resolve:     resolve,
		blocklist:   blocklist,
		websites:    websites,
		logger:      logger,
		now:         time.Now,
	}
}

// WithGate lets the killswitch pause all blocking.
func (s *RuleSync) WithGate(g BlockingGate) *RuleSync {
	s.gate = g
	return s
}

// WithActivityLog records hosts changes in log.
func (s *RuleSync) WithActivityLog(log domain.ActivityLog) *RuleSync {
	s.activity = log
	return s
}

// WithClock overrides the time source (for testing).
func (s *RuleSync) WithClock(now func() time.Time) *RuleSync {
	s.now = now
	return s
}

// Sync computes the desired apps and domains, replaces the blocklist, and
// rewrites the hosts region when the domain set changed since the last pass.
// While paused both sets are empty. A first pass with no domains leaves the
// hosts file alone.
func (s *RuleSync) Sync(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &SyncResult{Paused: s.paused()}

	var err error
	if !result.Paused {
		active := policy.ActiveRules(s.rules, s.now())
		result.ActiveRules = ruleNames(active)
		result.Apps = s.desiredApps(active)
		result.Domains, err = s.desiredDomains(active)
		if err != nil {
			return nil, err
		}
	}

	if key := strings.Join(result.ActiveRules, ","); key != s.lastActive {
		s.logger.Info("active rules changed", zap.Strings("rules", result.ActiveRules), zap.Bool("paused", result.Paused))
		s.lastActive = key
	}

	s.blocklist.Replace(result.Apps)

	if sameSet(s.lastDomains, result.Domains) {
		return result, nil
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	// The attempted set is remembered even on failure so a missing
	// privilege is reported once per change, not once per tick.
	previous := s.lastDomains
	s.lastDomains = result.Domains

	if err := s.websites.Apply(result.Domains); err != nil {
		if errors.Is(err, ErrElevationRequired) {
			s.logger.Warn("website blocks not applied", zap.Error(err))
			return result, nil
		}
		return result, fmt.Errorf("failed to apply website blocks: %w", err)
	}
	result.HostsRewritten = true

	switch {
	case len(result.Domains) > 0:
		s.record(domain.EventWebsitesApplied, fmt.Sprintf("%d domains blocked", len(result.Domains)))
	case len(previous) > 0:
		s.record(domain.EventWebsitesRemoved, "All website blocks removed")
	}
	return result, nil
}

func (s *RuleSync) paused() bool {
	if s.gate == nil {
		return false
	}
	paused, err := s.gate.BlockingPaused()
	if err != nil {
		s.logger.Warn("failed to read killswitch state", zap.Error(err))
		return false
	}
	return paused
}

func (s *RuleSync) desiredApps(active []policy.Rule) []string {
	apps := append([]string{}, s.baseApps...)
	for _, r := range active {
		apps = append(apps, r.Apps...)
	}
	return apps
}

func (s *RuleSync) desiredDomains(active []policy.Rule) ([]string, error) {
	domains := append([]string{}, s.baseDomains...)
	var categories []string
	for _, r := range active {
		domains = append(domains, r.Domains...)
		categories = append(categories, r.Categories...)
	}
	return s.resolve(domains, categories)
}

func (s *RuleSync) record(t domain.ActivityEventType, reason string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Append(domain.ActivityEvent{Type: t, Reason: reason}); err != nil {
		s.logger.Warn("failed to record activity", zap.Error(err))
	}
}

func ruleNames(rules []policy.Rule) []string {
	names := make([]string, 0, len(rules))
	for i, r := range rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", r.Type, i)
		}
		names = append(names, name)
	}
	return names
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string{}, a...)
	y := append([]string{}, b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
