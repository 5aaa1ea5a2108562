package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/scenarist/packages/audit"
	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	title := result.File
	if result.Name != "" {
		title = fmt.Sprintf("%s (%s)", result.Name, result.File)
	}
	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+title))

	for _, r := range result.Results {
		label := fmt.Sprintf("#%d %s %s", r.Index, r.Method, r.Name)
		timing := cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds()))

		switch r.Status {
		case runner.StatusSkipped:
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), label)
			if r.SkipReason != "" && r.SkipReason != "filtered out" {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
			continue

		case runner.StatusXFail:
			fmt.Fprintf(f.writer, "  %s %s %s %s\n", magenta("x"), label, magenta("xfail"), timing)
			if f.verbose {
				fmt.Fprintf(f.writer, "    %s %v\n", magenta("→"), r.Error)
			}
			continue

		case runner.StatusXPass:
			fmt.Fprintf(f.writer, "  %s %s %s %s\n", green("✓"), label, yellow("xpass"), timing)
			continue

		case runner.StatusPassed:
			fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), label, timing)

		default:
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), label, timing)
			f.formatFailure(r, red)
		}

		if f.verbose && r.Response != nil {
			fmt.Fprintf(f.writer, "    %s %s\n", r.Method, r.URL)
			fmt.Fprintf(f.writer, "    Status: %d %s\n", r.Response.StatusCode, r.Response.Reason)
			if ct := r.Response.ContentType(); ct != "" {
				fmt.Fprintf(f.writer, "    Content-Type: %s\n", ct)
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Steps: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.XFailed > 0 {
		fmt.Fprintf(f.writer, "%s, ", magenta(fmt.Sprintf("%d xfailed", result.XFailed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(result.Results))
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
	if result.Recorded != "" {
		fmt.Fprintf(f.writer, "Recorded: %s\n", result.Recorded)
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) formatFailure(r *runner.StepResult, red func(a ...any) string) {
	if r.Error == nil {
		return
	}
	m, ok := mismatch(r.Error)
	if !ok {
		fmt.Fprintf(f.writer, "    %s %v\n", red("→"), r.Error)
		return
	}

	fmt.Fprintf(f.writer, "    %s %s mismatch\n", red("→"), m.Kind)
	fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(m.Expected, 100))
	fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(m.Actual, 100))
	if m.Diff != "" {
		f.formatDiff(m.Diff)
	}
}

func (f *ConsoleFormatter) formatDiff(diff string) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			fmt.Fprintf(f.writer, "      %s\n", line)
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintf(f.writer, "      %s\n", cyan(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintf(f.writer, "      %s\n", red(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprintf(f.writer, "      %s\n", green(line))
		default:
			fmt.Fprintf(f.writer, "      %s\n", line)
		}
	}
}

// FormatAudit prints step timing percentiles and where the API call list
// was written.
func (f *ConsoleFormatter) FormatAudit(summary audit.Summary, csvPath string) {
	bold := color.New(color.Bold).SprintFunc()
	if summary.Count > 0 {
		fmt.Fprintf(f.writer, "%s %d steps, p50 %s, p95 %s, p99 %s, max %s\n", bold("Timing:"),
			summary.Count, summary.P50, summary.P95, summary.P99, summary.Max)
	}
	if csvPath != "" {
		fmt.Fprintf(f.writer, "%s %s\n", bold("API calls:"), csvPath)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("scenarist"), version)
}
