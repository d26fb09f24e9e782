package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Vinod798751/anoma/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(config.Settings())
		if err != nil {
			return err
		}
		if file := config.ConfigFileUsed(); file != "" {
			fmt.Println(styled(labelStyle, "# "+file))
		}
		fmt.Print(string(out))
		return nil
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Operate the commitment accumulator",
}

var commitAddCmd = &cobra.Command{
	Use:   "add <hex-digest>",
	Short: "Append a 32-byte commitment and print its index and the new root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		leaf, err := decodeDigest(args[0])
		if err != nil {
			return err
		}
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()
		index, root, err := store.Commitments().Add(ctx, leaf)
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%x\n", index, root)
		return nil
	},
}

var commitRootCmd = &cobra.Command{
	Use:   "root",
	Short: "Print the accumulator root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()
		root, err := store.Commitments().Root(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", root)
		return nil
	},
}

func decodeDigest(s string) ([]byte, error) {
	if len(s) != 64 {
		return nil, fmt.Errorf("digest must be 64 hex chars, got %d", len(s))
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex digest: %w", err)
	}
	return out, nil
}

func init() {
	commitCmd.AddCommand(commitAddCmd, commitRootCmd)
	rootCmd.AddCommand(configCmd, commitCmd)
}
