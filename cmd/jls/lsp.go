package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafaeldeoliveira/java-language-server/internal/compiler"
	"github.com/rafaeldeoliveira/java-language-server/internal/lsp"
)

var (
	lspDebounce    time.Duration
	lspAnalyzer    string
	lspWatchConfig bool
)

func init() {
	lspCmd.Flags().DurationVar(&lspDebounce, "debounce", 300*time.Millisecond, "delay before linting after an edit")
	lspCmd.Flags().StringVar(&lspAnalyzer, "analyzer", "", "analyzer command overriding the javaconfig.toml [lint] command")
	lspCmd.Flags().BoolVar(&lspWatchConfig, "watch-config", true, "watch the workspace for build configuration changes")
}

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the Java language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")
	logger := configureLogging(quiet)

	opts := lsp.ServerOptions{
		Debounce:       lspDebounce,
		MaxDiagnostics: maxDiagnostics,
		Logger:         logger,
		WatchConfig:    lspWatchConfig,
	}
	if lspAnalyzer != "" {
		opts.Construct = compiler.NewExternalFactory(strings.Fields(lspAnalyzer))
	}
	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
