package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"contractcreator/internal/types"
	"contractcreator/internal/validation"
)

var errContractInvalid = errors.New("contract is not valid")

func newValidateCmd() *cobra.Command {
	var (
		validatorURL string
		timeout      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a contract with local rules or a remote validator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, canonical, err := readContract(cmd, args[0])
			if err != nil {
				return err
			}

			var v validation.Validator
			if validatorURL != "" {
				v = validation.NewRemoteValidator(validatorURL, timeout)
			} else if v, err = validation.NewRulesValidator(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			errs, err := validation.NewService(v, nil).Validate(ctx, canonical)
			if err != nil {
				return err
			}
			if len(errs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "contract is valid")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFindings(errs))
			return fmt.Errorf("%w: %d problem(s)", errContractInvalid, len(errs))
		},
	}
	cmd.Flags().StringVar(&validatorURL, "validator-url", "", "Remote validator endpoint; local rules when empty")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Validation timeout")
	return cmd
}

func renderFindings(errs []types.StructuredError) string {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateHeader = false
	tw.AppendHeader(table.Row{"PATH", "CATEGORY", "MESSAGE"})
	for _, e := range errs {
		path := e.Path
		if path == "" {
			path = "-"
		}
		tw.AppendRow(table.Row{path, e.Category, e.Message})
	}
	return tw.Render()
}
