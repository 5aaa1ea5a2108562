package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// CSVFileName is the file WriteCSV produces inside a run's log directory.
const CSVFileName = "api_calls.csv"

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Call is one distinct API call and how often it was made.
type Call struct {
	Method string
	URL    string
	Count  int
}

// Key returns the "METHOD URL" form used in the CSV file.
func (c Call) Key() string {
	return c.Method + " " + c.URL
}

// StepTiming is the measured duration of one executed step.
type StepTiming struct {
	Scenario string
	Step     string
	Duration time.Duration
}

// Summary holds step duration percentiles.
type Summary struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Recorder is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	calls     map[string]*Call
	steps     []StepTiming
	histogram *hdrhistogram.Histogram
	logger    *slog.Logger
}

type RecorderOption func(*Recorder)

func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		calls:     make(map[string]*Call),
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordCall counts one call of method against url.
func (r *Recorder) RecordCall(method, url string) {
	c := Call{Method: method, URL: url}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.calls[c.Key()]; ok {
		existing.Count++
		return
	}
	c.Count = 1
	r.calls[c.Key()] = &c
}

// RecordStep stores the duration of a step.
func (r *Recorder) RecordStep(scenario, step string, d time.Duration) {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// RecordValue only fails outside the histogram range, which the clamp excludes.
	if err := r.histogram.RecordValue(us); err != nil {
		r.logger.Warn("step duration not recorded in histogram", "scenario", scenario, "step", step, "duration", d, "error", err)
	}
	r.steps = append(r.steps, StepTiming{Scenario: scenario, Step: step, Duration: d})
}

// Calls returns the recorded calls sorted by key.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key() < out[j].Key()
	})
	return out
}

func (r *Recorder) Steps() []StepTiming {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StepTiming(nil), r.steps...)
}

func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.histogram
	if h.TotalCount() == 0 {
		return Summary{}
	}
	return Summary{
		Count: h.TotalCount(),
		Min:   time.Duration(h.Min()) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
	}
}

// WriteCSV writes one "METHOD URL",count row per call, sorted by key, to
// dir/api_calls.csv and returns the file path.
func (r *Recorder) WriteCSV(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}
	path := filepath.Join(dir, CSVFileName)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, c := range r.Calls() {
		if err := w.Write([]string{c.Key(), strconv.Itoa(c.Count)}); err != nil {
			return "", fmt.Errorf("failed to write api call: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return path, nil
}
