package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func newStoreCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "List or wipe raw keys",
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List every stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.store.Available(cmd.Context()) {
				return errors.New("store backend is unavailable")
			}
			keys, err := e.store.Keys(cmd.Context())
			if err != nil {
				return err
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	var yes bool
	wipe := &cobra.Command{
		Use:   "clear",
		Short: "Delete every key, including the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to wipe the store without --yes")
			}
			if err := e.store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "store cleared")
			return nil
		},
	}
	wipe.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")

	cmd.AddCommand(keys, wipe)
	return cmd
}
