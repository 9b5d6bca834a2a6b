package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/neuguard/internal/config"
	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
	"github.com/eliteGoblin/focusd/neuguard/internal/usecase"
)

var processesCmd = &cobra.Command{
	Use:   "processes",
	Short: "List running applications",
	Long:  `Lists running processes with a resolvable executable, one row per executable path.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := engine.ListRunningProcesses()
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

var browsersCmd = &cobra.Command{
	Use:   "browsers",
	Short: "List running web browsers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := engine.ListBrowserProcesses()
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List installed applications",
	Long: `Scans the standard program folders, Steam libraries and (on Windows)
the uninstall registry for installed applications.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := engine.ListInstalledApplications(context.Background())
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <pid>",
	Short: "Terminate a process by PID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid pid %q: %w", args[0], err)
		}

		engine, cfg, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if closeStore, err := withStore(engine, cfg); err == nil {
			defer closeStore()
		}

		if _, err := engine.Terminate(uint32(pid)); err != nil {
			return err
		}
		fmt.Printf("Terminated process %d\n", pid)
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <name>...",
	Short: "Add applications to the blocklist",
	Long: `Adds process names to the blocklist stored in the config file.
Names are case-insensitive; "steam" also matches "steam.exe".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editBlocklist(args, true)
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <name>...",
	Short: "Remove applications from the blocklist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editBlocklist(args, false)
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked [name]",
	Short: "List blocked applications, or check one name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if len(args) == 1 {
			blocked := engine.IsBlocked(args[0])
			if listJSON {
				return json.NewEncoder(os.Stdout).Encode(blocked)
			}
			if blocked {
				fmt.Printf("%s is blocked\n", args[0])
			} else {
				fmt.Printf("%s is not blocked\n", args[0])
			}
			return nil
		}

		names := engine.ListBlocked()
		if listJSON {
			return json.NewEncoder(os.Stdout).Encode(names)
		}
		if len(names) == 0 {
			fmt.Println("No applications are blocked.")
			return nil
		}
		for _, n := range names {
			fmt.Printf("  - %s\n", n)
		}
		return nil
	},
}

var listJSON bool

func init() {
	for _, c := range []*cobra.Command{processesCmd, browsersCmd, appsCmd, blockedCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unblockCmd)
}

// editBlocklist edits blocked_apps in the config file. Only what the file
// already holds is written back.
func editBlocklist(names []string, block bool) error {
	var count int
	err := config.Update(resolvedConfigPath(), func(c *config.Config) error {
		store := usecase.NewBlocklistStore(c.BlockedApps...)
		for _, n := range names {
			if block {
				store.Block(n)
			} else {
				store.Unblock(n)
			}
		}
		c.BlockedApps = store.ListBlocked()
		count = len(c.BlockedApps)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Blocklist: %d application(s)\n", count)
	return nil
}

func printRecords(records []domain.ApplicationRecord) error {
	if listJSON {
		if records == nil {
			records = []domain.ApplicationRecord{}
		}
		return json.NewEncoder(os.Stdout).Encode(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tPATH")
	for _, r := range records {
		pid := "-"
		if r.PID != nil {
			pid = strconv.FormatUint(uint64(*r.PID), 10)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", pid, r.Name, r.Path)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d application(s)\n", len(records))
	return nil
}
