/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/instruction"
	"github.com/ssargent/namereg/pkg/ledger"
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a name into a new slot",
	Long: `Register a name into a slot funded by the payer. A slot identity is
generated unless --slot is given.

Examples:
  namereg register example.sol --payer 9f2c...e1
  namereg register example.sol --payer 9f2c...e1 --slot 41ab...07`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payerHex, _ := cmd.Flags().GetString("payer")
		slotHex, _ := cmd.Flags().GetString("slot")

		payer, err := codec.ParseIdentity(payerHex)
		if err != nil {
			return fmt.Errorf("--payer: %w", err)
		}

		var slot codec.Identity
		if slotHex == "" {
			slot, err = codec.NewIdentity()
		} else {
			slot, err = codec.ParseIdentity(slotHex)
		}
		if err != nil {
			return fmt.Errorf("--slot: %w", err)
		}

		return withRuntime(cmd, func(rt *runtime) error {
			return runRegister(cmd.Context(), cmd.OutOrStdout(), rt, payer, slot, args[0])
		})
	},
}

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <slot>",
	Short: "Resolve the name record stored in a slot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := codec.ParseIdentity(args[0])
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(rt *runtime) error {
			return runResolve(cmd.Context(), cmd.OutOrStdout(), rt, slot)
		})
	},
}

// invokeCmd represents the invoke command
var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Run raw instruction data",
	Long: `Run hex-encoded instruction data against accounts given in wire order
[payer, slot, system]. The first byte of the data selects the instruction:
0 registers the remaining bytes as a name, 1 resolves the slot.

Example:
  namereg invoke --accounts <payer>,<slot>,<system> --data 00657861...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, _ := cmd.Flags().GetStringSlice("accounts")
		dataHex, _ := cmd.Flags().GetString("data")

		keys := make([]codec.Identity, 0, len(accounts))
		for _, account := range accounts {
			id, err := codec.ParseIdentity(account)
			if err != nil {
				return err
			}
			keys = append(keys, id)
		}
		data, err := hex.DecodeString(dataHex)
		if err != nil {
			return fmt.Errorf("--data must be hex: %w", err)
		}

		return withRuntime(cmd, func(rt *runtime) error {
			return runInvoke(cmd.Context(), cmd.OutOrStdout(), rt, keys, data)
		})
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(invokeCmd)

	registerCmd.Flags().String("payer", "", "Payer identity funding the slot (required)")
	registerCmd.Flags().String("slot", "", "Slot identity to allocate (default: generated)")
	if err := registerCmd.MarkFlagRequired("payer"); err != nil {
		panic(err)
	}

	invokeCmd.Flags().StringSlice("accounts", nil, "Account identities in order payer,slot,system")
	invokeCmd.Flags().String("data", "", "Hex-encoded instruction data")
}

func runRegister(ctx context.Context, out io.Writer, rt *runtime, payer, slot codec.Identity, name string) error {
	accounts := instruction.Accounts{Payer: payer, Slot: slot, System: ledger.SystemProgramID}
	result, err := rt.processor.Execute(ctx, accounts, instruction.RegisterName{Name: []byte(name)})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Registered %q\n", result.Record.Name)
	fmt.Fprintf(out, "Slot: %s\n", result.Slot)
	fmt.Fprintf(out, "Invocation: %s\n", result.InvocationID)
	return nil
}

func runResolve(ctx context.Context, out io.Writer, rt *runtime, slot codec.Identity) error {
	result, err := rt.processor.Execute(ctx, instruction.Accounts{Slot: slot}, instruction.ResolveName{})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Name: %s\n", result.Record.Name)
	fmt.Fprintf(out, "Owner: %s\n", result.Record.Owner)
	fmt.Fprintf(out, "Created at: %d\n", result.Record.CreatedAt)
	return nil
}

func runInvoke(ctx context.Context, out io.Writer, rt *runtime, keys []codec.Identity, data []byte) error {
	result, err := rt.processor.Process(ctx, keys, data)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
