package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/scenarist/packages/audit"
	"github.com/abdul-hamid-achik/scenarist/packages/builtin"
	"github.com/abdul-hamid-achik/scenarist/packages/core/config"
	"github.com/abdul-hamid-achik/scenarist/packages/core/runlog"
	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
	"github.com/abdul-hamid-achik/scenarist/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run [file|directory]...",
	Short: "Run scenario files",
	Long: `Run scenario files, directories of scenario files, or a scenario set.

Examples:
  scenarist run scenarios/users/create.json
  scenarist run scenarios/ --config staging.yaml
  scenarist run --scenario-set smoke.yaml --data-root scenarios
  scenarist run scenarios/ --output junit --output-file report.xml
  scenarist run exports/orders.postman_collection.json --record`,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	scenarioSetFlag string
	nameFlag        string
	verboseFlag     bool
	debugFlag       bool
	noColorFlag     bool
	outputFlag      string
	outputFileFlag  string
	bailFlag        bool
	watchFlag       bool
	recordFlag      bool
	auditDBFlag     string
)

func init() {
	runCmd.Flags().StringVarP(&scenarioSetFlag, "scenario-set", "s", getEnvString("SCENARIST_SCENARIO_SET", ""), "Scenario set file selecting the scenarios to run (env: SCENARIST_SCENARIO_SET)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only steps matching name pattern")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("SCENARIST_VERBOSE", false), "Show request and response details (env: SCENARIST_VERBOSE)")
	runCmd.Flags().BoolVar(&debugFlag, "debug", getEnvBool("SCENARIST_DEBUG", false), "Write debug records to the run logs and stderr (env: SCENARIST_DEBUG)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("SCENARIST_NO_COLOR", false), "Disable colored output (env: SCENARIST_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("SCENARIST_OUTPUT", output.FormatConsole), "Output format: console, json, junit, tap (env: SCENARIST_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("SCENARIST_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: SCENARIST_OUTPUT_FILE)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("SCENARIST_BAIL", false), "Stop on first failure (env: SCENARIST_BAIL)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch scenario files for changes and re-run")
	runCmd.Flags().BoolVar(&recordFlag, "record", getEnvBool("SCENARIST_RECORD", false), "Write actual responses of Postman collection exports back as scenarios (env: SCENARIST_RECORD)")
	runCmd.Flags().StringVar(&auditDBFlag, "audit-db", getEnvString("SCENARIST_AUDIT_DB", ""), "SQLite database the API call audit of each run is appended to (env: SCENARIST_AUDIT_DB)")
}

// runPlan is everything a run needs besides the formatter.
type runPlan struct {
	config   *config.TestConfig
	setName  string
	files    []string
	dataRoot string
	logs     *runlog.Logs
}

// runTotals sums the results of every scenario of a run.
type runTotals struct {
	passed   int
	failed   int
	skipped  int
	xfailed  int
	broken   int
	recorded []string
	duration time.Duration
}

func newFormatter(w io.Writer, testConfig *config.TestConfig) output.Formatter {
	switch strings.ToLower(outputFlag) {
	case output.FormatJSON:
		opts := []output.JSONOption{}
		if w != nil {
			opts = append(opts, output.JSONWithWriter(w))
		}
		return output.NewJSONFormatter(opts...)
	case output.FormatJUnit:
		opts := []output.JUnitOption{}
		if w != nil {
			opts = append(opts, output.JUnitWithWriter(w))
		}
		return output.NewJUnitFormatter(opts...)
	case output.FormatTAP:
		opts := []output.TAPOption{}
		if w != nil {
			opts = append(opts, output.TAPWithWriter(w))
		}
		return output.NewTAPFormatter(opts...)
	default:
		consoleOpts := []output.ConsoleOption{
			output.WithVerbose(verboseFlag || testConfig.GetVerbose()),
			output.WithNoColor(noColorFlag || testConfig.GetNoColor()),
		}
		if w != nil {
			consoleOpts = append(consoleOpts, output.WithWriter(w))
		}
		return output.NewConsoleFormatter(consoleOpts...)
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && scenarioSetFlag == "" {
		return exitWith(ExitUsageError, fmt.Errorf("no scenario files given (pass files, directories or --scenario-set)"))
	}

	testConfig, err := loadTestConfig()
	if err != nil {
		return err
	}
	if bailFlag {
		testConfig.Bail = config.BoolPtr(true)
	}
	if recordFlag {
		testConfig.RecordResponses = config.BoolPtr(true)
	}

	// Setup output writer
	var outWriter io.Writer
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return exitWith(ExitConfigError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		outWriter = f
	}

	formatter := newFormatter(outWriter, testConfig)
	formatter.FormatHeader(version)

	plan := &runPlan{config: testConfig}

	var set *config.ScenarioSet
	if scenarioSetFlag != "" {
		set, err = config.LoadScenarioSet(scenarioSetFlag)
		if err != nil {
			formatter.FormatError(err)
			return exitWith(ExitConfigError, nil)
		}
		plan.setName = set.Name
	}

	fallbackRoot := ""
	if set != nil {
		fallbackRoot = "."
	}
	plan.dataRoot, err = dataRoot(fallbackRoot)
	if err != nil {
		return err
	}

	plan.files, err = collectFiles(args)
	if err != nil {
		formatter.FormatError(err)
		return exitWith(ExitUsageError, nil)
	}
	if set != nil {
		matched, err := set.ScenarioFiles(plan.dataRoot)
		if err != nil {
			formatter.FormatError(err)
			return exitWith(ExitConfigError, nil)
		}
		plan.files = append(plan.files, matched...)
	}
	if len(plan.files) == 0 {
		formatter.FormatError(fmt.Errorf("no scenario files found"))
		return exitWith(ExitUsageError, nil)
	}

	var console io.Writer
	if debugFlag {
		console = cmd.ErrOrStderr()
	}
	plan.logs, err = runlog.Open(runlog.Options{
		Dir:        testConfig.LogDir,
		ConfigName: testConfig.Name,
		SetName:    plan.setName,
		Debug:      debugFlag,
		Console:    console,
	})
	if err != nil {
		formatter.FormatError(err)
		return exitWith(ExitConfigError, nil)
	}
	defer plan.logs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	totals, err := runScenarios(ctx, plan, formatter)
	if err != nil {
		formatter.FormatError(err)
		return exitWith(ExitConfigError, nil)
	}

	if !watchFlag {
		return exitCode(totals)
	}
	return watch(ctx, cmd, plan, outWriter, totals)
}

func exitCode(totals *runTotals) error {
	switch {
	case totals.broken > 0:
		return exitWith(ExitParseError, nil)
	case totals.failed > 0:
		return exitWith(ExitTestFailure, nil)
	}
	return nil
}

// runScenarios runs every scenario of the plan with a fresh environment,
// generator and audit recorder, then writes the audit.
func runScenarios(ctx context.Context, plan *runPlan, formatter output.Formatter) (*runTotals, error) {
	logger := plan.logs.Logger()

	environment, err := loadEnvironment(plan.config)
	if err != nil {
		return nil, err
	}
	recorder := audit.NewRecorder(audit.WithLogger(logger))
	rc := runner.NewRunContext(environment, builtin.NewGenerator(), recorder)

	cfg := runnerConfig(plan.config, plan.dataRoot)
	cfg.Verbose = cfg.Verbose || verboseFlag
	cfg.NameFilter = nameFlag

	r, err := runner.NewRunner(cfg,
		runner.WithLogger(logger),
		runner.WithRunContext(rc),
		runner.WithScenarioLogs(func(path string) (*slog.Logger, func() error, error) {
			return plan.logs.ScenarioLogger(absPath(path), plan.dataRoot)
		}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("run started", "config", plan.config.Name, "set", plan.setName, "scenarios", len(plan.files))
	totals := &runTotals{}
	startedAt := time.Now()

	for _, file := range plan.files {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", "error", ctx.Err())
			break
		}

		result, err := r.RunFile(ctx, file)
		if result == nil {
			totals.broken++
			formatter.FormatError(fmt.Errorf("%s: %w", file, err))
			if cfg.Bail {
				break
			}
			continue
		}

		var stepsFailed *runner.StepsFailedError
		if err != nil && !errors.As(err, &stepsFailed) {
			formatter.FormatError(err)
		}

		formatter.FormatResult(result)
		totals.passed += result.Passed
		totals.failed += result.Failed
		totals.skipped += result.Skipped
		totals.xfailed += result.XFailed
		if result.Recorded != "" {
			totals.recorded = append(totals.recorded, result.Recorded)
		}

		if cfg.Bail && result.Failed > 0 {
			break
		}
	}
	totals.duration = time.Since(startedAt)

	// Flush output for formatters that accumulate results
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(totals.duration); err != nil {
			return totals, fmt.Errorf("error writing output: %w", err)
		}
	}

	csvPath, err := recorder.WriteCSV(plan.logs.Dir())
	if err != nil {
		return totals, err
	}
	if console, ok := formatter.(*output.ConsoleFormatter); ok {
		console.FormatAudit(recorder.Summary(), csvPath)
	}

	if auditDBFlag != "" {
		if err := saveAudit(plan, startedAt, recorder); err != nil {
			return totals, err
		}
	}

	logger.Info("run finished", "passed", totals.passed, "failed", totals.failed, "skipped", totals.skipped,
		"xfailed", totals.xfailed, "broken", totals.broken, "duration", totals.duration)
	return totals, nil
}

func saveAudit(plan *runPlan, startedAt time.Time, recorder *audit.Recorder) error {
	store, err := audit.OpenStore(auditDBFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	name := plan.config.Name
	if plan.setName != "" {
		name += "." + plan.setName
	}
	runID, err := store.Save(name, startedAt, recorder)
	if err != nil {
		return err
	}
	plan.logs.Logger().Info("audit saved", "db", auditDBFlag, "run", runID)
	return nil
}

func watch(ctx context.Context, cmd *cobra.Command, plan *runPlan, outWriter io.Writer, last *runTotals) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Add the directories of every scenario file
	watchedDirs := make(map[string]bool)
	for _, file := range plan.files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to watch %s: %v\n", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	// Recorded documents are written by the run itself
	var mu sync.Mutex
	ignored := recordedSet(last)

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) || !isScenarioFile(event.Name) {
				continue
			}
			mu.Lock()
			skip := ignored[absPath(event.Name)]
			mu.Unlock()
			if skip {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running scenarios...\n\n", name)

				totals, err := runScenarios(ctx, plan, newFormatter(outWriter, plan.config))
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				} else {
					mu.Lock()
					for path := range recordedSet(totals) {
						ignored[path] = true
					}
					mu.Unlock()
				}

				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

func recordedSet(totals *runTotals) map[string]bool {
	out := make(map[string]bool)
	if totals == nil {
		return out
	}
	for _, path := range totals.recorded {
		out[absPath(path)] = true
	}
	return out
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
