package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/neuguard/internal/app"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the unlock PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set <pin>",
	Short: "Store a new unlock PIN",
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

		if err := engine.SetPIN(args[0]); err != nil {
			return err
		}
		fmt.Println("PIN stored")
		return nil
	},
}

var pinVerifyCmd = &cobra.Command{
	Use:   "verify <pin>",
	Short: "Verify a PIN against the stored hash",
	Long: `Checks a PIN against the stored hash. A matching legacy hash is
upgraded to the current format.`,
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

		ok, err := engine.CheckPIN(args[0])
		if errors.Is(err, app.ErrNoPIN) {
			return fmt.Errorf("%w: run 'neuguard pin set' first", err)
		}
		return reportMatch(ok, err)
	},
}

var pinHashCmd = &cobra.Command{
	Use:   "hash <pin>",
	Short: "Print the hash of a PIN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		hash, err := engine.HashPIN(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var pinCheckCmd = &cobra.Command{
	Use:   "check <hash> <pin>",
	Short: "Check a PIN against a given hash",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		return reportMatch(engine.VerifyPIN(args[0], args[1]))
	},
}

var errPINMismatch = errors.New("PIN does not match")

func init() {
	pinCmd.AddCommand(pinSetCmd)
	pinCmd.AddCommand(pinCheckCmd)
	pinCmd.AddCommand(pinHashCmd)
	pinCmd.AddCommand(pinVerifyCmd)
	rootCmd.AddCommand(pinCmd)
}

func reportMatch(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return errPINMismatch
	}
	fmt.Println("PIN OK")
	return nil
}
