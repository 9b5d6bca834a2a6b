// Package app wires the enforcement components into one Engine that owns
// every shared resource and exposes the user-facing commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/config"
	"github.com/eliteGoblin/focusd/neuguard/internal/credential"
	"github.com/eliteGoblin/focusd/neuguard/internal/daemon"
	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
	"github.com/eliteGoblin/focusd/neuguard/internal/infra"
	"github.com/eliteGoblin/focusd/neuguard/internal/policy"
	"github.com/eliteGoblin/focusd/neuguard/internal/usecase"
)

var (
	// ErrNoPIN is returned when no PIN hash has been stored yet.
	ErrNoPIN = errors.New("no PIN has been set")
	// ErrWrongPIN is returned when a PIN-gated command gets a mismatching PIN.
	ErrWrongPIN = errors.New("incorrect PIN")
)

// KillswitchMessage is posted to the webhook when the killswitch fires.
const KillswitchMessage = "🚨 **KILLSWITCH ACTIVATED** 🚨\n\nAll blocking has been disabled for safety reasons."

// Deps are the components an Engine is built from.
type Deps struct {
	Cache      *usecase.SnapshotCache
	Discovery  *usecase.InstalledDiscovery
	Blocklist  *usecase.BlocklistStore
	Terminator domain.ProcessTerminator
	Processes  domain.ProcessSource // Optional; enforcement falls back to the cache
	Websites   *usecase.WebsiteBlockManager
	Categories *policy.Registry
	Notifier   domain.Notifier
	Logger     *zap.Logger
}

// Engine owns the process cache, blocklist, hosts manager and notifier.
type Engine struct {
	cache      *usecase.SnapshotCache
	discovery  *usecase.InstalledDiscovery
	blocklist  *usecase.BlocklistStore
	terminator domain.ProcessTerminator
	processes  domain.ProcessSource
	websites   *usecase.WebsiteBlockManager
	websitesMu sync.Mutex // serializes hosts read-modify-write cycles
	categories *policy.Registry
	notifier   domain.Notifier
	secrets    domain.SecretStore // Set via WithSecrets
	activity   domain.ActivityLog // Set via WithActivityLog
	logger     *zap.Logger
}

// New creates an Engine from explicit dependencies.
func New(d Deps) *Engine {
	if d.Categories == nil {
		d.Categories = policy.NewRegistry()
	}
	if d.Blocklist == nil {
		d.Blocklist = usecase.NewBlocklistStore()
	}
	return &Engine{
		cache:      d.Cache,
		discovery:  d.Discovery,
		blocklist:  d.Blocklist,
		terminator: d.Terminator,
		processes:  d.Processes,
		websites:   d.Websites,
		categories: d.Categories,
		notifier:   d.Notifier,
		logger:     d.Logger,
	}
}

// NewFromConfig wires the real OS-backed components.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Engine {
	fsm := infra.NewFileSystemManager()

	var uninstall domain.UninstallSource = infra.NewUninstallSource(logger)
	pm := infra.NewProcessManager()
	inventory := usecase.NewProcessInventory(pm, logger)
	discovery := usecase.NewInstalledDiscovery(
		fsm,
		uninstall,
		policy.NewSteamLibraries(fsm, runtime.GOOS),
		policy.CurrentPlatform(),
		logger,
	)

	return New(Deps{
		Cache:      usecase.NewSnapshotCache(inventory, cfg.ProcessCacheTTL),
		Discovery:  discovery,
		Blocklist:  usecase.NewBlocklistStore(cfg.BlockedApps...),
		Terminator: infra.NewTerminator(),
		Processes:  pm,
		Websites:   usecase.NewWebsiteBlockManager(cfg.HostsPath, infra.NewDNSFlusher(), logger),
		Categories: policy.NewRegistry(),
		Notifier:   infra.NewWebhookNotifier(cfg.NotifyInterval, logger),
		Logger:     logger,
	})
}

// WithSecrets enables PIN persistence.
func (e *Engine) WithSecrets(s domain.SecretStore) *Engine {
	e.secrets = s
	return e
}

// WithActivityLog enables activity history.
func (e *Engine) WithActivityLog(l domain.ActivityLog) *Engine {
	e.activity = l
	return e
}

// Logger returns the Engine's logger.
func (e *Engine) Logger() *zap.Logger { return e.logger }

// --- processes ---

// ListRunningProcesses returns the cached running-process snapshot.
func (e *Engine) ListRunningProcesses() ([]domain.ApplicationRecord, error) {
	snap, err := e.cache.GetOrRefresh()
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// ListBrowserProcesses returns running processes that look like web browsers.
func (e *Engine) ListBrowserProcesses() ([]domain.ApplicationRecord, error) {
	records, err := e.ListRunningProcesses()
	if err != nil {
		return nil, err
	}
	browsers := make([]domain.ApplicationRecord, 0)
	for _, r := range records {
		if policy.IsBrowser(r.Name) {
			browsers = append(browsers, r)
		}
	}
	return browsers, nil
}

// ListInstalledApplications returns the installed-application catalog.
func (e *Engine) ListInstalledApplications(ctx context.Context) ([]domain.ApplicationRecord, error) {
	return e.discovery.ListInstalled(ctx)
}

// Terminate kills pid.
func (e *Engine) Terminate(pid uint32) (bool, error) {
	ok, err := e.terminator.Kill(pid)
	if err != nil {
		return false, err
	}
	if ok {
		e.cache.Invalidate()
		e.record(domain.EventProcessKilled, fmt.Sprintf("Process %d terminated on request", pid))
	}
	return ok, nil
}

// --- blocklist ---

// Block adds name to the blocklist.
func (e *Engine) Block(name string) bool { return e.blocklist.Block(name) }

// Unblock removes name from the blocklist.
func (e *Engine) Unblock(name string) bool { return e.blocklist.Unblock(name) }

// IsBlocked reports whether name is blocked.
func (e *Engine) IsBlocked(name string) bool { return e.blocklist.IsBlocked(name) }

// ListBlocked returns the blocked names.
func (e *Engine) ListBlocked() []string { return e.blocklist.ListBlocked() }

// --- websites ---

// ResolveDomains merges explicit domains with the domains of the named
// categories, normalized and deduplicated in order.
func (e *Engine) ResolveDomains(domains, categoryIDs []string) ([]string, error) {
	fromCategories, err := e.categories.DomainsFor(categoryIDs)
	if err != nil {
		return nil, err
	}

	var out []string
	seen := make(map[string]bool)
	for _, d := range append(append([]string{}, domains...), fromCategories...) {
		n := policy.NormalizeDomain(d)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// ApplyWebsiteBlocks replaces the hosts-file block list with domains.
func (e *Engine) ApplyWebsiteBlocks(domains []string) error {
	applied, err := e.applyDomains(domains)
	if err != nil {
		return err
	}
	if applied == 0 {
		e.record(domain.EventWebsitesRemoved, "")
	} else {
		e.record(domain.EventWebsitesApplied, fmt.Sprintf("%d domains blocked", applied))
	}
	return nil
}

func (e *Engine) applyDomains(domains []string) (int, error) {
	normalized, err := e.ResolveDomains(domains, nil)
	if err != nil {
		return 0, err
	}

	e.websitesMu.Lock()
	defer e.websitesMu.Unlock()

	if err := e.websites.Apply(normalized); err != nil {
		return 0, err
	}
	return len(normalized), nil
}

// RemoveWebsiteBlocks clears the hosts-file block list.
func (e *Engine) RemoveWebsiteBlocks() error {
	e.websitesMu.Lock()
	defer e.websitesMu.Unlock()

	if err := e.websites.Remove(); err != nil {
		return err
	}
	e.record(domain.EventWebsitesRemoved, "")
	return nil
}

// ListBlockedDomains returns the domains currently in the hosts file block.
func (e *Engine) ListBlockedDomains() ([]string, error) {
	e.websitesMu.Lock()
	defer e.websitesMu.Unlock()
	return e.websites.List()
}

// Categories returns the built-in website categories.
func (e *Engine) Categories() []policy.Category {
	return e.categories.GetAll()
}

// --- credentials ---

// HashPIN returns a fresh salted hash of pin.
func (e *Engine) HashPIN(pin string) (string, error) {
	return credential.Hash(pin)
}

// VerifyPIN checks pin against storedHash of either format.
func (e *Engine) VerifyPIN(storedHash, pin string) (bool, error) {
	return credential.Verify(pin, storedHash)
}

// SetPIN hashes pin and stores it.
func (e *Engine) SetPIN(pin string) error {
	if e.secrets == nil {
		return errors.New("secret store not configured")
	}
	if strings.TrimSpace(pin) == "" {
		return errors.New("PIN must not be empty")
	}
	hash, err := credential.Hash(pin)
	if err != nil {
		return err
	}
	if err := e.secrets.SetSecret(infra.SecretKeyPINHash, hash); err != nil {
		return fmt.Errorf("failed to store PIN hash: %w", err)
	}
	return nil
}

// CheckPIN verifies pin against the stored hash. A legacy hash that matches
// is replaced with a salted one.
func (e *Engine) CheckPIN(pin string) (bool, error) {
	if e.secrets == nil {
		return false, errors.New("secret store not configured")
	}
	stored, err := e.secrets.GetSecret(infra.SecretKeyPINHash)
	if errors.Is(err, domain.ErrSecretNotFound) || (err == nil && stored == "") {
		return false, ErrNoPIN
	}
	if err != nil {
		return false, fmt.Errorf("failed to load PIN hash: %w", err)
	}

	parsed, err := credential.Parse(stored)
	if err != nil {
		return false, err
	}
	if !parsed.Verify(pin) {
		return false, nil
	}

	if parsed.IsLegacy() {
		if err := e.SetPIN(pin); err != nil {
			e.logger.Warn("failed to upgrade legacy PIN hash", zap.Error(err))
		} else {
			e.logger.Info("legacy PIN hash upgraded")
		}
	}
	return true, nil
}

// --- killswitch ---

// Killswitch disables all blocking after checking pin. Blocking stays off
// for every later monitor pass until Resume.
func (e *Engine) Killswitch(ctx context.Context, pin, webhookURL string) error {
	if err := e.requirePIN(pin); err != nil {
		return err
	}
	if err := e.secrets.SetSecret(infra.SecretKeyKillswitch, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store killswitch state: %w", err)
	}

	e.blocklist.Replace(nil)
	e.logger.Warn("killswitch activated - all blocking disabled")

	if err := e.Notify(ctx, webhookURL, KillswitchMessage); err != nil {
		e.logger.Warn("killswitch notification failed", zap.Error(err))
	}
	e.record(domain.EventKillswitch, "Killswitch activated - all blocking disabled")

	return e.RemoveWebsiteBlocks()
}

// Resume re-enables blocking after a killswitch.
func (e *Engine) Resume(pin string) error {
	if err := e.requirePIN(pin); err != nil {
		return err
	}
	if err := e.secrets.SetSecret(infra.SecretKeyKillswitch, ""); err != nil {
		return fmt.Errorf("failed to store killswitch state: %w", err)
	}
	e.logger.Info("blocking resumed")
	e.record(domain.EventBlockingResumed, "")
	return nil
}

// BlockingPaused reports whether the killswitch is active.
func (e *Engine) BlockingPaused() (bool, error) {
	if e.secrets == nil {
		return false, nil
	}
	v, err := e.secrets.GetSecret(infra.SecretKeyKillswitch)
	if errors.Is(err, domain.ErrSecretNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read killswitch state: %w", err)
	}
	return v != "", nil
}

func (e *Engine) requirePIN(pin string) error {
	ok, err := e.CheckPIN(pin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPIN
	}
	return nil
}

// --- notifications ---

// Notify posts message to webhookURL. An empty URL is a silent no-op.
func (e *Engine) Notify(ctx context.Context, webhookURL, message string) error {
	if webhookURL == "" {
		return nil
	}
	return e.notifier.Notify(ctx, webhookURL, message)
}

// --- history ---

// History returns up to limit activity events, newest first.
func (e *Engine) History(limit int) ([]domain.ActivityEvent, error) {
	if e.activity == nil {
		return nil, errors.New("activity log not configured")
	}
	return e.activity.Recent(limit)
}

// --- monitoring ---

// NewEnforcer builds an enforcer over the Engine's cache and blocklist.
func (e *Engine) NewEnforcer(webhookURL string, cooldown time.Duration) *usecase.EnforcerImpl {
	enforcer := usecase.NewEnforcer(e.cache, e.blocklist, e.terminator, e.logger).
		WithNotifier(e.notifier, webhookURL, cooldown).
		WithActivityLog(e.activity)
	if e.processes != nil {
		enforcer.WithProcessSource(e.processes)
	}
	return enforcer
}

// NewRuleSync builds the syncer that keeps the blocklist and hosts region
// equal to the current blocklist and domains plus every active rule.
func (e *Engine) NewRuleSync(domains []string, rules []policy.Rule) (*usecase.RuleSync, error) {
	base, err := e.ResolveDomains(domains, nil)
	if err != nil {
		return nil, err
	}
	apply := func(domains []string) error {
		e.websitesMu.Lock()
		defer e.websitesMu.Unlock()
		return e.websites.Apply(domains)
	}
	return usecase.NewRuleSync(e.ListBlocked(), base, rules, e.ResolveDomains, e.blocklist, applyFunc(apply), e.logger).
		WithGate(e).
		WithActivityLog(e.activity), nil
}

// NewMonitor builds the long-running monitor. cfg.Domains and rules are
// synced through the Engine on every tick so hosts edits stay serialized.
func (e *Engine) NewMonitor(cfg daemon.MonitorConfig, cooldown time.Duration, rules []policy.Rule) (*daemon.Monitor, error) {
	syncer, err := e.NewRuleSync(cfg.Domains, rules)
	if err != nil {
		return nil, err
	}
	cfg.Domains = nil
	return daemon.NewMonitor(
		cfg,
		e.NewEnforcer(cfg.WebhookURL, cooldown),
		nil,
		e.notifier,
		e.activity,
		e.logger,
	).WithSyncer(syncer), nil
}

type applyFunc func([]string) error

func (f applyFunc) Apply(domains []string) error { return f(domains) }

func (e *Engine) record(t domain.ActivityEventType, reason string) {
	if e.activity == nil {
		return
	}
	if err := e.activity.Append(domain.ActivityEvent{Type: t, Reason: reason}); err != nil {
		e.logger.Warn("failed to record activity", zap.Error(err))
	}
}
