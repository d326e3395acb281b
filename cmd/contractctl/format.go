package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contractcreator/internal/schema"
)

func newFormatCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Print a contract in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := schema.ParseFormat(format)
			if err != nil {
				return err
			}
			docs, _, err := readContract(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := schema.Render(docs, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "pretty", "pretty, compact or yaml")
	return cmd
}
