package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rafaeldeoliveira/java-language-server/internal/version"
)

var (
	versionAsJSON bool
	versionFull   bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionAsJSON, "json", false, "emit machine-readable output")
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "include commit hash and build date")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the jls build version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		configureColor(cmd)
		out := cmd.OutOrStdout()

		if versionAsJSON {
			payload := map[string]string{
				"tool":    "jls",
				"version": version.Number,
			}
			if versionFull {
				payload["git_commit"] = orUnknown(version.GitCommit)
				payload["build_date"] = orUnknown(version.BuildDate)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}

		fmt.Fprintf(out, "jls %s\n", version.Colorized())
		if versionFull {
			fmt.Fprintf(out, "commit: %s\n", orUnknown(version.GitCommit))
			fmt.Fprintf(out, "built:  %s\n", orUnknown(version.BuildDate))
		}
		return nil
	},
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
