package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"crackhash/internal/potfile"
)

func newPotfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "potfile",
		Short: "List recovered digests as algorithm:digest:plaintext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Potfile == "" {
				return errors.New("no potfile configured")
			}
			pot, err := potfile.Open(a.cfg.Potfile, a.log)
			if err != nil {
				return err
			}
			defer pot.Close()

			entries, err := pot.Entries()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s:%s\n", e.Algorithm, e.Digest, e.Plaintext)
			}
			return nil
		},
	}
}
