package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/rafaeldeoliveira/java-language-server/internal/compiler"
	"github.com/rafaeldeoliveira/java-language-server/internal/diag"
	"github.com/rafaeldeoliveira/java-language-server/internal/infer"
	"github.com/rafaeldeoliveira/java-language-server/internal/uri"
)

var (
	checkFormat   string
	checkAnalyzer string
)

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().StringVar(&checkAnalyzer, "analyzer", "", "analyzer command overriding the javaconfig.toml [lint] command")
}

var checkCmd = &cobra.Command{
	Use:          "check <file>...",
	Short:        "Run one-shot diagnostics over Java sources",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	configureColor(cmd)
	switch checkFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", checkFormat)
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	maxDiagnostics, _ := cmd.Flags().GetInt("max-diagnostics")

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	classpath, err := infer.Classpath(root)
	if err != nil {
		return err
	}
	argv := strings.Fields(checkAnalyzer)
	if len(argv) == 0 {
		cfg, _, err := infer.LoadConfig(root)
		if err != nil {
			return err
		}
		argv = cfg.Lint.Command
	}
	linter, err := compiler.NewExternalFactory(argv)(classpath)
	if err != nil {
		return err
	}

	requested := make([]string, 0, len(args))
	for _, arg := range args {
		requested = append(requested, uri.FromPath(arg))
	}

	raws, err := linter.Lint(cmd.Context(), requested)
	if err != nil {
		return err
	}
	bag := diag.NewBag(maxDiagnostics)
	for _, d := range raws {
		if !bag.Add(d) {
			break
		}
	}
	bridged := diag.Bridge(requested, bag.Items(), diskContent)

	out := cmd.OutOrStdout()
	if checkFormat == "json" {
		if err := renderCheckJSON(out, requested, bridged); err != nil {
			return err
		}
	} else {
		renderCheckPretty(out, requested, bridged, quiet)
	}

	if problems, hasErrors := checkOutcome(requested, bridged); hasErrors {
		return fmt.Errorf("%d problems found", problems)
	}
	return nil
}

// checkOutcome totals the reported problems and reports whether any of
// them is an error. The decision runs on the bridged output: a raw
// diagnostic the bridge skipped was never reported and must not fail
// the run with a zero count.
func checkOutcome(requested []string, bridged map[string][]diag.Positioned) (problems int, hasErrors bool) {
	for _, u := range requested {
		for _, p := range bridged[u] {
			problems++
			if p.Severity == diag.SevError {
				hasErrors = true
			}
		}
	}
	return problems, hasErrors
}

// diskContent bridges offsets against on-disk text, mirroring what the
// server does against its live document store.
func diskContent(u string) (string, error) {
	path := uri.ToPath(u)
	if path == "" {
		return "", fmt.Errorf("%s: %w", u, diag.ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", u, diag.ErrNotFound)
	}
	return string(data), nil
}

func renderCheckPretty(out io.Writer, requested []string, bridged map[string][]diag.Positioned, quiet bool) {
	for _, u := range requested {
		path := uri.ToPath(u)
		for _, p := range bridged[u] {
			sev := severityColor(p.Severity).Sprint(p.Severity.String())
			if p.Code != "" {
				fmt.Fprintf(out, "%s:%d:%d: %s [%s]: %s\n",
					path, p.Range.Start.Line+1, p.Range.Start.Column+1, sev, p.Code, p.Message)
			} else {
				fmt.Fprintf(out, "%s:%d:%d: %s: %s\n",
					path, p.Range.Start.Line+1, p.Range.Start.Column+1, sev, p.Message)
			}
			if !quiet {
				printContext(out, u, p)
			}
		}
	}
}

// printContext shows the offending source line with a caret underline.
// Widths are measured in display cells so wide runes line up.
func printContext(out io.Writer, u string, p diag.Positioned) {
	text, err := diskContent(u)
	if err != nil {
		return
	}
	line := lineAt(text, p.Range.Start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(out, "    %s\n", line)

	start := p.Range.Start.Column
	if start > len(line) {
		start = len(line)
	}
	end := len(line)
	if p.Range.End.Line == p.Range.Start.Line && p.Range.End.Column < end {
		end = p.Range.End.Column
	}
	if end < start {
		end = start
	}
	pad := runewidth.StringWidth(line[:start])
	width := runewidth.StringWidth(line[start:end])
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(out, "    %s%s\n", strings.Repeat(" ", pad), strings.Repeat("^", width))
}

func lineAt(text string, line int) string {
	for i := 0; i < line; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return ""
		}
		text = text[idx+1:]
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimRight(text, "\r")
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

type checkDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	EndLine  int    `json:"endLine"`
	EndCol   int    `json:"endColumn"`
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

func renderCheckJSON(out io.Writer, requested []string, bridged map[string][]diag.Positioned) error {
	list := make([]checkDiagnostic, 0)
	for _, u := range requested {
		path := uri.ToPath(u)
		for _, p := range bridged[u] {
			list = append(list, checkDiagnostic{
				File:     path,
				Line:     p.Range.Start.Line + 1,
				Column:   p.Range.Start.Column + 1,
				EndLine:  p.Range.End.Line + 1,
				EndCol:   p.Range.End.Column + 1,
				Severity: p.Severity.String(),
				Code:     p.Code,
				Message:  p.Message,
			})
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
