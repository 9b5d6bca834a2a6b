package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/neuguard/internal/app"
	"github.com/eliteGoblin/focusd/neuguard/internal/config"
	"github.com/eliteGoblin/focusd/neuguard/internal/daemon"
	"github.com/eliteGoblin/focusd/neuguard/internal/infra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Enforce the blocklist until interrupted",
	Long: `Every scan interval, syncs the blocklist and website blocks with the
configured lists plus every active rule, then terminates blocked
applications, until SIGINT or SIGTERM. Start and stop are reported to the
configured webhook. Nothing is blocked while the killswitch is active.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var notifyCmd = &cobra.Command{
	Use:   "notify <message>",
	Short: "Send a message to the accountability webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cfg, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		url := notifyURL
		if url == "" {
			url = cfg.WebhookURL
		}
		if url == "" {
			fmt.Printf("No webhook configured (set webhook_url, %s or --url); nothing sent\n", config.EnvWebhookURL)
			return nil
		}
		if err := engine.Notify(cmd.Context(), url, args[0]); err != nil {
			return err
		}
		fmt.Println("Notification sent")
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cfg, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		closeStore, err := withStore(engine, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		events, err := engine.History(historyLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}
		for _, e := range events {
			fmt.Printf("%s  %-20s %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Type, e.Reason)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolvedConfigPath()
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n", resolvedConfigPath())
		return yaml.NewEncoder(os.Stdout).Encode(cfg)
	},
}

var (
	notifyURL    string
	historyLimit int
	forceInit    bool
)

func init() {
	notifyCmd.Flags().StringVar(&notifyURL, "url", "", "Webhook URL (default: from config)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of events to show")
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := createLogger(cfg.LogFile)
	defer func() { _ = logger.Sync() }()
	warnIfNotElevated(logger)

	engine := app.NewFromConfig(cfg, logger)

	store, err := infra.OpenEncryptedStore(cfg.DataDir)
	if err != nil {
		logger.Warn("activity history disabled", zap.Error(err))
	} else {
		defer store.Close()
		engine.WithSecrets(store).WithActivityLog(store)
	}

	domains, err := engine.ResolveDomains(cfg.BlockedDomains, cfg.WebsiteCategories)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting monitor",
		zap.String("version", Version),
		zap.Strings("blocked_apps", engine.ListBlocked()),
		zap.Int("blocked_domains", len(domains)),
		zap.Int("rules", len(cfg.Rules)),
		zap.Duration("scan_interval", cfg.ScanInterval))

	monitor, err := engine.NewMonitor(daemon.MonitorConfig{
		ScanInterval: cfg.ScanInterval,
		WebhookURL:   cfg.WebhookURL,
		Domains:      domains,
	}, cfg.WarnCooldown, cfg.Rules)
	if err != nil {
		return err
	}

	if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("monitor stopped")
	return nil
}
