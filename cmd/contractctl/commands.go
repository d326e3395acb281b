package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"contractcreator/internal/logging"
	"contractcreator/internal/schema"
	"contractcreator/internal/types"
)

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "contractctl",
		Short:         "Format, validate and generate data contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			return logging.SetLogLevel(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")

	root.AddCommand(newFormatCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newFieldsCmd())
	return root
}

// Run executes the CLI.
func Run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// readContract loads a contract file, "-" meaning stdin. Files ending in
// .yaml or .yml are read as YAML.
func readContract(cmd *cobra.Command, path string) ([]types.DocumentType, string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	text := string(raw)

	var docs []types.DocumentType
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		docs, err = schema.ParseYAML(text)
	default:
		docs, err = schema.Parse(text)
	}
	if err != nil {
		return nil, "", err
	}
	canonical, err := schema.Canonical(docs)
	if err != nil {
		return nil, "", err
	}
	return docs, canonical, nil
}
