package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"contractcreator/internal/llm"
	"contractcreator/internal/llmtool"
	"contractcreator/internal/logging"
	"contractcreator/internal/schema"
)

func newGenerateCmd() *cobra.Command {
	var (
		existing string
		provider string
		model    string
		format   string
		retries  int
	)
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Ask the model for a new or revised contract",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := schema.ParseFormat(format)
			if err != nil {
				return err
			}
			current := ""
			if existing != "" {
				if _, current, err = readContract(cmd, existing); err != nil {
					return err
				}
			}

			ctx := context.Background()
			opts := llm.Options{
				Provider: provider,
				Model:    model,
				Retries:  retries,
				Logger:   logging.New("llm", "provider", provider),
			}
			if strings.EqualFold(provider, llm.ProviderGemini) {
				opts.APIKey = os.Getenv("GEMINI_API_KEY")
			} else {
				opts.APIKey = os.Getenv("OPENAI_API_KEY")
				opts.BaseURL = os.Getenv("OPENAI_BASE_URL")
			}
			cli, err := llm.New(ctx, opts)
			if err != nil {
				return err
			}
			defer cli.Close()

			text, err := llmtool.NewContractGenerator(cli).GenerateContract(ctx, strings.Join(args, " "), current)
			if err != nil {
				return err
			}
			docs, err := schema.Parse(text)
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
	cmd.Flags().StringVar(&existing, "existing", "", "Contract file to revise")
	cmd.Flags().StringVar(&provider, "provider", envOr("LLM_PROVIDER", llm.ProviderOpenAI), "openai, gemini or fake")
	cmd.Flags().StringVar(&model, "model", "", "Model id; provider default when empty")
	cmd.Flags().StringVarP(&format, "output", "o", "pretty", "pretty, compact or yaml")
	cmd.Flags().IntVar(&retries, "retries", 3, "Retries on transient model errors")
	return cmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
