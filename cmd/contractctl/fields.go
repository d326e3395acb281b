package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields [file] [document type]",
		Short: "List the names an index of a document type may use",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, _, err := readContract(cmd, args[0])
			if err != nil {
				return err
			}
			for i := range docs {
				if docs[i].Name != args[1] {
					continue
				}
				for _, name := range docs[i].IndexFieldChoices() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return fmt.Errorf("document type %q not found", args[1])
		},
	}
}
