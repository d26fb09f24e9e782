package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Vinod798751/anoma/internal/noun"
	"github.com/Vinod798751/anoma/internal/storage"
)

// parseKey turns a CLI key into a noun: "a" is an atom, "a/b" a proper list
// of its segments.
func parseKey(arg string) noun.Noun {
	if !strings.Contains(arg, "/") {
		return noun.Text(arg)
	}
	segs := strings.Split(arg, "/")
	elems := make([]noun.Noun, len(segs))
	for i, s := range segs {
		elems[i] = noun.Text(s)
	}
	return noun.List(elems...)
}

func printResult(res storage.Result) {
	if res.Present {
		fmt.Println(styled(presentStyle, res.Value.String()))
	} else {
		fmt.Println(styled(absentStyle, "absent"))
	}
}

var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Store a value under the next version of a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()
		return store.Put(ctx, parseKey(args[0]), noun.Text(args[1]))
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read the current value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()
		printResult(store.Get(ctx, parseKey(args[0])))
		return nil
	},
}

var getAtCmd = &cobra.Command{
	Use:   "get-at <key> <version>",
	Short: "Read the value of a key at an exact version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var version uint64
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()
		printResult(store.ReadAtOrder(ctx, parseKey(args[0]), version))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Tombstone a key at a new version, keeping its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()
		return store.Delete(ctx, parseKey(args[0]))
	},
}

var keyspaceCmd = &cobra.Command{
	Use:   "keyspace [prefix...]",
	Short: "Read every key under a prefix, all-or-nothing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()

		prefix := make([]noun.Noun, len(args))
		for i, a := range args {
			prefix[i] = noun.Text(a)
		}
		pairs, ok := store.GetKeyspace(ctx, prefix)
		if !ok {
			fmt.Println(styled(absentStyle, "absent"))
			return nil
		}
		for _, kv := range pairs {
			fmt.Printf("%s\t%s\n", styled(labelStyle, kv.Key.String()), kv.Value)
		}
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [key]",
	Short: "Capture the order map; with a key, store it as a value",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()

		if len(args) == 1 {
			return store.PutSnapshot(ctx, parseKey(args[0]))
		}
		snap, err := store.SnapshotOrder(ctx)
		if err != nil {
			return err
		}
		for _, e := range snap.Entries() {
			fmt.Printf("%s\t%d\n", styled(labelStyle, e.Key.String()), e.Version)
		}
		return nil
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the storage tables if they do not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, closeFn, err := openStorage(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer closeFn()
		// Opening ensures the tables; nothing further to do.
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the storage tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := openStorage(ctx, nil)
		if err != nil {
			return err
		}
		defer closeFn()
		return store.EnsureNew(ctx)
	},
}

func init() {
	rootCmd.AddCommand(putCmd, getCmd, getAtCmd, deleteCmd, keyspaceCmd, snapshotCmd, setupCmd, resetCmd)
}
