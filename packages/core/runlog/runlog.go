package runlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const LogFileExt = ".log"

// Logs owns the log directory of one run and the files opened in it.
type Logs struct {
	dir   string
	level slog.Level

	mu    sync.Mutex
	run   *slog.Logger
	files []*os.File
}

// Options configure Open.
type Options struct {
	Dir        string // parent log directory
	ConfigName string
	SetName    string
	Debug      bool
	// Console, when set, receives run log records as well.
	Console io.Writer
}

// Open creates the run directory and its run log file.
func Open(opts Options) (*Logs, error) {
	name := opts.ConfigName
	if name == "" {
		name = "default"
	}
	dirName := name
	if opts.SetName != "" {
		dirName = name + "." + opts.SetName
	}
	dir := filepath.Join(opts.Dir, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logs{dir: dir, level: slog.LevelInfo}
	if opts.Debug {
		l.level = slog.LevelDebug
	}

	f, err := l.create(filepath.Join(dir, name+LogFileExt))
	if err != nil {
		return nil, err
	}

	var handler slog.Handler = slog.NewTextHandler(f, l.handlerOptions())
	if opts.Console != nil {
		handler = Tee(handler, slog.NewTextHandler(opts.Console, l.handlerOptions()))
	}
	l.run = slog.New(handler)
	return l, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (l *Logs) Dir() string {
	return l.dir
}

func (l *Logs) Logger() *slog.Logger {
	return l.run
}

// ScenarioLogger opens <run dir>/<scenario path relative to dataRoot>.log.
// Scenario paths outside dataRoot use their base name. The file is closed by
// the returned func and by Close.
func (l *Logs) ScenarioLogger(scenarioPath, dataRoot string) (*slog.Logger, func() error, error) {
	rel := filepath.Base(scenarioPath)
	if dataRoot != "" {
		if r, err := filepath.Rel(dataRoot, scenarioPath); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	path := filepath.Join(l.dir, strings.TrimSuffix(rel, filepath.Ext(rel))+LogFileExt)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create scenario log directory: %w", err)
	}

	f, err := l.create(path)
	if err != nil {
		return nil, nil, err
	}
	l.run.Info("scenario log created", "file", path)

	closeFn := func() error {
		return l.release(f)
	}
	return slog.New(slog.NewTextHandler(f, l.handlerOptions())), closeFn, nil
}

// Close closes every open log file.
func (l *Logs) Close() error {
	l.mu.Lock()
	files := l.files
	l.files = nil
	l.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Logs) handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{Level: l.level}
}

func (l *Logs) create(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	l.mu.Lock()
	l.files = append(l.files, f)
	l.mu.Unlock()
	return f, nil
}

func (l *Logs) release(f *os.File) error {
	l.mu.Lock()
	for i, open := range l.files {
		if open == f {
			l.files = append(l.files[:i], l.files[i+1:]...)
			l.mu.Unlock()
			return f.Close()
		}
	}
	l.mu.Unlock()
	return nil
}

// teeHandler sends every record to all of its handlers.
type teeHandler []slog.Handler

// Tee returns a handler writing to each of handlers.
func Tee(handlers ...slog.Handler) slog.Handler {
	return teeHandler(handlers)
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
