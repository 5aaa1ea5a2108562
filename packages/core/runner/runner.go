package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/scenarist/packages/assertions"
	"github.com/abdul-hamid-achik/scenarist/packages/core/directive"
	"github.com/abdul-hamid-achik/scenarist/packages/core/env"
	"github.com/abdul-hamid-achik/scenarist/packages/core/expand"
	"github.com/abdul-hamid-achik/scenarist/packages/core/scenario"
	"github.com/abdul-hamid-achik/scenarist/packages/http"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

type Runner struct {
	client *http.Client
	store  *scenario.FileStore
	config *Config
	run    *RunContext
	logger *slog.Logger

	scenarioLogs ScenarioLogFunc
}

type Config struct {
	Verbose            bool
	Timeout            time.Duration
	FollowRedirects    bool
	MaxRedirects       int
	ValidateSSL        bool
	Proxy              string
	Headers            map[string]string
	RateLimit          float64 // requests per second, 0 for none
	ExcludedProperties []string
	// Record writes actual responses back into Postman collection exports.
	Record     bool
	Bail       bool
	NameFilter string
	// DataRoot is the directory scenario references are resolved under.
	DataRoot string
}

// ScenarioLogFunc opens the logger of one scenario file. The returned func
// closes it.
type ScenarioLogFunc func(path string) (*slog.Logger, func() error, error)

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRunContext shares environment, generator and recorder with other
// runners of the same run.
func WithRunContext(rc *RunContext) Option {
	return func(r *Runner) {
		if rc != nil {
			r.run = rc
		}
	}
}

func WithClient(client *http.Client) Option {
	return func(r *Runner) {
		if client != nil {
			r.client = client
		}
	}
}

func WithScenarioLogs(fn ScenarioLogFunc) Option {
	return func(r *Runner) {
		r.scenarioLogs = fn
	}
}

func NewRunner(cfg *Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = &Config{FollowRedirects: true, ValidateSSL: true}
	}

	store, err := scenario.NewFileStore(cfg.DataRoot)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		store:  store,
		config: cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.FollowRedirects),
			http.WithValidateSSL(cfg.ValidateSSL),
			http.WithDefaultHeaders(cfg.Headers),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
		}
		if cfg.MaxRedirects > 0 {
			clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		if cfg.RateLimit > 0 {
			clientOpts = append(clientOpts, http.WithRateLimit(cfg.RateLimit))
		}
		r.client = http.NewClient(clientOpts...)
	}
	if r.run == nil {
		r.run = NewRunContext(nil, nil, nil)
	}
	return r, nil
}

func (r *Runner) Store() *scenario.FileStore {
	return r.store
}

func (r *Runner) Context() *RunContext {
	return r.run
}

// Load reads and expands a scenario file without running it.
func (r *Runner) Load(path string) (*scenario.Document, error) {
	doc, err := r.store.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	if err := expand.New(r.store, expand.WithLogger(r.logger)).Expand(doc, r.run.Environment.Snapshot()); err != nil {
		return nil, err
	}
	return doc, nil
}

// RunFile loads, expands and runs the scenario file at path. Load and
// expansion errors are returned before any request is sent. When steps fail
// the result is returned together with a *StepsFailedError.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	logger := r.logger
	if r.scenarioLogs != nil {
		scenarioLogger, closeLog, err := r.scenarioLogs(path)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := closeLog(); err != nil {
				r.logger.Warn("closing scenario log", "path", path, "error", err)
			}
		}()
		logger = scenarioLogger
	}

	logger.Info("running scenario", "path", path)
	doc, err := r.Load(path)
	if err != nil {
		logger.Error("scenario not runnable", "path", path, "error", err)
		return nil, err
	}

	result := r.RunDocument(ctx, doc, logger)

	if r.config.Record {
		if target, ok := scenario.RecordedPath(doc.Path); ok {
			if err := r.store.Save(target, doc); err != nil {
				return result, fmt.Errorf("recording responses: %w", err)
			}
			result.Recorded = target
			logger.Info("recorded responses", "path", target)
		}
	}

	logger.Info("scenario finished", "path", path, "passed", result.Passed, "failed", result.Failed,
		"skipped", result.Skipped, "xfailed", result.XFailed, "duration", result.Duration)
	return result, result.Err()
}

// RunDocument runs the steps of an already expanded document.
func (r *Runner) RunDocument(ctx context.Context, doc *scenario.Document, logger *slog.Logger) *RunResult {
	if logger == nil {
		logger = r.logger
	}
	start := time.Now()
	result := &RunResult{File: doc.Path, Name: doc.Name()}
	s := r.NewSession(doc, logger)

	skipReason, err := r.runDocumentEvents(s, directive.PreRequest, doc.PreRequestScript())
	if err != nil {
		logger.Error("document prerequest directives failed", "error", err)
		for _, step := range doc.Steps {
			result.add(&StepResult{Index: step.Index, Name: step.Name, Method: step.Method(), Status: StatusFailed, Error: err})
		}
		result.Duration = time.Since(start)
		return result
	}

	bailed := false
	for _, step := range doc.Steps {
		switch {
		case skipReason != "":
			result.add(&StepResult{Index: step.Index, Name: step.Name, Method: step.Method(), Status: StatusSkipped, SkipReason: skipReason})
			continue
		case bailed:
			result.add(&StepResult{Index: step.Index, Name: step.Name, Method: step.Method(), Status: StatusSkipped, SkipReason: "bail after failure"})
			continue
		case !matchesPattern(step.Name, r.config.NameFilter):
			result.add(&StepResult{Index: step.Index, Name: step.Name, Method: step.Method(), Status: StatusSkipped, SkipReason: "filtered out"})
			continue
		}

		if err := ctx.Err(); err != nil {
			result.add(&StepResult{Index: step.Index, Name: step.Name, Method: step.Method(), Status: StatusFailed, Error: err})
			continue
		}

		stepResult := r.RunStep(ctx, s, step)
		result.add(stepResult)
		if stepResult.Failed() && r.config.Bail {
			bailed = true
		}
	}

	if skipReason == "" {
		if _, err := r.runDocumentEvents(s, directive.PostRequest, doc.PostRequestScript()); err != nil {
			logger.Error("document test directives failed", "error", err)
		}
	}

	result.Duration = time.Since(start)
	return result
}

// runDocumentEvents runs document-level directives. A skip directive in the
// prerequest script skips the whole document.
func (r *Runner) runDocumentEvents(s *Session, phase directive.Phase, script []string) (string, error) {
	if len(script) == 0 {
		return "", nil
	}
	directives, err := markup.ParseAll(script)
	if err != nil {
		return "", err
	}
	outcome, err := s.Interpreter.Run(phase, directives, s.last)
	if err != nil {
		return "", err
	}
	if outcome.Skipped {
		reason := outcome.SkipReason
		if reason == "" {
			reason = "skipped"
		}
		return reason, nil
	}
	return "", nil
}

// NewSession prepares the per-document state: the document's scenario
// scope over the run's environment scope, and the components bound to it.
func (r *Runner) NewSession(doc *scenario.Document, logger *slog.Logger) *Session {
	if logger == nil {
		logger = r.logger
	}
	scope := env.NewScope(env.NewVarsFromMap(doc.VariableMap()), r.run.Environment)
	resolver := env.NewResolver(scope, r.run.Generator, env.WithLogger(logger))
	return &Session{
		Document:    doc,
		Scope:       scope,
		Resolver:    resolver,
		Interpreter: directive.New(resolver, directive.WithLogger(logger)),
		Validator: assertions.NewValidator(
			assertions.WithExcludedProperties(r.config.ExcludedProperties),
			assertions.WithResolver(resolver),
			assertions.WithLogger(logger),
		),
		Logger:  logger,
		baseDir: r.uploadDir(doc.Path),
	}
}

// uploadDir is the directory relative file parts are read from: the data
// root when set, else the scenario's own directory.
func (r *Runner) uploadDir(path string) string {
	if root := r.store.Root(); root != "" {
		return root
	}
	if path == "" {
		return "."
	}
	return filepath.Dir(path)
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if pattern[0] == '*' && pattern[len(pattern)-1] == '*' && len(pattern) > 1 {
		return strings.Contains(name, pattern[1:len(pattern)-1])
	}

	if pattern[0] == '*' {
		return strings.HasSuffix(name, pattern[1:])
	}

	if pattern[len(pattern)-1] == '*' {
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}

	return name == pattern
}
