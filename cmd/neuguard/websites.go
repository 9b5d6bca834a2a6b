package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/neuguard/internal/usecase"
)

var websitesCmd = &cobra.Command{
	Use:   "websites",
	Short: "Manage hosts-file website blocks",
}

var websitesApplyCmd = &cobra.Command{
	Use:   "apply [domain]...",
	Short: "Block websites via the hosts file",
	Long: `Replaces the managed hosts-file region with the given domains plus the
domains of every --category. With no arguments the domains and categories
from the config file are used. Requires administrator rights.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cfg, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if closeStore, err := withStore(engine, cfg); err == nil {
			defer closeStore()
		}
		warnIfNotElevated(engine.Logger())

		domains, categories := args, websiteCategories
		if len(domains) == 0 && len(categories) == 0 {
			domains, categories = cfg.BlockedDomains, cfg.WebsiteCategories
		}
		resolved, err := engine.ResolveDomains(domains, categories)
		if err != nil {
			return err
		}

		if err := engine.ApplyWebsiteBlocks(resolved); err != nil {
			return elevationHint(err)
		}
		fmt.Printf("Blocked %d domain(s)\n", len(resolved))
		return nil
	},
}

var websitesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove all website blocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cfg, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if closeStore, err := withStore(engine, cfg); err == nil {
			defer closeStore()
		}
		warnIfNotElevated(engine.Logger())

		if err := engine.RemoveWebsiteBlocks(); err != nil {
			return elevationHint(err)
		}
		fmt.Println("Website blocks removed")
		return nil
	},
}

var websitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blocked websites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		domains, err := engine.ListBlockedDomains()
		if err != nil {
			return err
		}
		if len(domains) == 0 {
			fmt.Println("No websites are blocked.")
			return nil
		}
		for _, d := range domains {
			fmt.Printf("  - %s\n", d)
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List website categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		categories := engine.Categories()
		if categoriesJSON {
			return json.NewEncoder(os.Stdout).Encode(categories)
		}
		for _, c := range categories {
			fmt.Printf("\n[%s] %s\n", c.ID, c.Name)
			fmt.Printf("  %s\n", c.Description)
			fmt.Printf("  Domains: %d\n", len(c.Domains))
		}
		return nil
	},
}

var (
	websiteCategories []string
	categoriesJSON    bool
)

func init() {
	websitesApplyCmd.Flags().StringSliceVar(&websiteCategories, "category", nil, "Category ID to block (repeatable)")
	categoriesCmd.Flags().BoolVar(&categoriesJSON, "json", false, "Output as JSON")

	websitesCmd.AddCommand(websitesApplyCmd)
	websitesCmd.AddCommand(websitesRemoveCmd)
	websitesCmd.AddCommand(websitesListCmd)
	rootCmd.AddCommand(websitesCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func elevationHint(err error) error {
	if errors.Is(err, usecase.ErrElevationRequired) {
		return fmt.Errorf("%w (run as administrator, e.g. sudo neuguard ...)", err)
	}
	return err
}
