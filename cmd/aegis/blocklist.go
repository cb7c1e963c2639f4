package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aegis/internal/reputation"
)

func newBlocklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocklist",
		Short: "Manage reputation blocklists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "compile <list.txt> <out.bloom>",
		Short: "Compile a plain-text blocklist into a bloom filter file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			if strings.HasSuffix(in, ".bloom") {
				return fmt.Errorf("%s is already compiled", in)
			}
			if !strings.HasSuffix(out, ".bloom") {
				return fmt.Errorf("output file must end in .bloom, got %s", out)
			}
			return compileBlocklist(in, out, cmd)
		},
	})
	return cmd
}

func compileBlocklist(in, out string, cmd *cobra.Command) error {
	bl, err := reputation.Load(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	n, err := bl.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "compiled %d entries into %s (%d bytes)\n", bl.Len(), out, n)
	return nil
}
