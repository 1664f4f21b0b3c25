/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/ledger"
	"github.com/ssargent/namereg/pkg/registry"
)

// keygenCmd represents the keygen command
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate random account identities",
	Long: `Generate random 32-byte identities for payers and slots, printed as hex.

Examples:
  namereg keygen
  namereg keygen --count 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		return runKeygen(cmd.OutOrStdout(), count)
	},
}

// airdropCmd represents the airdrop command
var airdropCmd = &cobra.Command{
	Use:   "airdrop <account> <lamports>",
	Short: "Credit lamports to an account",
	Long: `Credit lamports to an account, creating it as a system account if needed.

Example:
  namereg airdrop 9f2c...e1 5000000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := codec.ParseIdentity(args[0])
		if err != nil {
			return err
		}
		lamports, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lamports %q: %w", args[1], err)
		}
		return withRuntime(cmd, func(rt *runtime) error {
			return runAirdrop(cmd.Context(), cmd.OutOrStdout(), rt, id, lamports)
		})
	},
}

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance <account>",
	Short: "Show an account's balance, owner and size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := codec.ParseIdentity(args[0])
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(rt *runtime) error {
			return runBalance(cmd.Context(), cmd.OutOrStdout(), rt, id)
		})
	},
}

// rentCmd represents the rent command
var rentCmd = &cobra.Command{
	Use:   "rent [space]",
	Short: "Show the rent-exempt minimum for a data size",
	Long: `Show the lamports needed to keep an account of the given data size rent
exempt. Defaults to the slot size used for name records.

Example:
  namereg rent 256`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		space := uint64(registry.SlotSize)
		if len(args) == 1 {
			parsed, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid space %q: %w", args[0], err)
			}
			space = parsed
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rent := cfg.LedgerConfig().Rent
		cmd.Printf("Rent-exempt minimum for %d bytes: %d lamports\n", space, rent.MinimumBalance(space))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(airdropCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(rentCmd)

	keygenCmd.Flags().IntP("count", "n", 1, "Number of identities to generate")
}

func runKeygen(out io.Writer, count int) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	for i := 0; i < count; i++ {
		id, err := codec.NewIdentity()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id.String())
	}
	return nil
}

func runAirdrop(ctx context.Context, out io.Writer, rt *runtime, id codec.Identity, lamports uint64) error {
	balance, err := rt.ledger.Airdrop(ctx, id, lamports)
	if err != nil {
		return fmt.Errorf("airdrop failed: %w", err)
	}
	fmt.Fprintf(out, "Airdropped %d lamports to %s\n", lamports, id)
	fmt.Fprintf(out, "Balance: %d\n", balance)
	return nil
}

func runBalance(ctx context.Context, out io.Writer, rt *runtime, id codec.Identity) error {
	account, err := rt.ledger.Account(ctx, id)
	if err != nil {
		return fmt.Errorf("account %s: %w", id, err)
	}

	owner := account.Owner.String()
	if account.Owner == ledger.SystemProgramID {
		owner += " (system)"
	} else if account.Owner == rt.registry.ProgramID() {
		owner += " (namereg)"
	}

	fmt.Fprintf(out, "Account: %s\n", id)
	fmt.Fprintf(out, "Lamports: %d\n", account.Lamports)
	fmt.Fprintf(out, "Owner: %s\n", owner)
	fmt.Fprintf(out, "Space: %d\n", account.Space())
	return nil
}
