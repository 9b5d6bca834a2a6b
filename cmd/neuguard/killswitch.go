package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/neuguard/internal/app"
	"github.com/eliteGoblin/focusd/neuguard/internal/policy"
)

var killswitchCmd = &cobra.Command{
	Use:   "killswitch <pin>",
	Short: "Disable all blocking (PIN required)",
	Long: `Checks the PIN, then clears the blocklist, removes every website block
and reports the event to the webhook. A running monitor stops blocking on
its next pass and stays idle until 'neuguard resume'.`,
	Args: cobra.ExactArgs(1),
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
		warnIfNotElevated(engine.Logger())

		if err := engine.Killswitch(cmd.Context(), args[0], cfg.WebhookURL); err != nil {
			return pinHint(elevationHint(err))
		}
		fmt.Println("Killswitch activated: all blocking disabled")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <pin>",
	Short: "Re-enable blocking after a killswitch",
	Args:  cobra.ExactArgs(1),
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

		if err := engine.Resume(args[0]); err != nil {
			return pinHint(err)
		}
		fmt.Println("Blocking resumed")
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List configured rules and whether each is active now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		now := time.Now()

		if rulesJSON {
			type row struct {
				policy.Rule
				Active bool `json:"active"`
			}
			rows := make([]row, 0, len(cfg.Rules))
			for _, r := range cfg.Rules {
				rows = append(rows, row{Rule: r, Active: r.ActiveAt(now)})
			}
			return json.NewEncoder(os.Stdout).Encode(rows)
		}

		if len(cfg.Rules) == 0 {
			fmt.Println("No rules configured.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tACTIVE\tAPPS\tDOMAINS\tCATEGORIES")
		for _, r := range cfg.Rules {
			fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%d\n",
				r.Name, r.Type, r.ActiveAt(now), len(r.Apps), len(r.Domains), len(r.Categories))
		}
		return w.Flush()
	},
}

var rulesJSON bool

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(killswitchCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(rulesCmd)
}

func pinHint(err error) error {
	if errors.Is(err, app.ErrNoPIN) {
		return fmt.Errorf("%w (set one with 'neuguard pin set <pin>')", err)
	}
	return err
}
