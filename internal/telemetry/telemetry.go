// Package telemetry is the minimal JSON run-timing emitter of spec §6.4 —
// the one component the core spec treats as an external collaborator, kept
// here only far enough that the orchestrator has somewhere real to report
// phase timings when a run opts in with --telemetry.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xtraq/xtraq/internal/xerrors"
)

// PhaseTiming is one recorded phase's duration.
type PhaseTiming struct {
	Name       string `json:"Name"`
	DurationMs int64  `json:"DurationMs"`
}

// RunReport is the JSON document written to
// "<root>/.xtraq/telemetry/<unix-nano>.json".
type RunReport struct {
	Command    string        `json:"Command"`
	StartedAt  time.Time     `json:"StartedAt"`
	FinishedAt time.Time     `json:"FinishedAt"`
	Phases     []PhaseTiming `json:"Phases,omitempty"`
	WarmRun    bool          `json:"WarmRun,omitempty"`
	Error      string        `json:"Error,omitempty"`
}

// Recorder accumulates phase timings for one command invocation. A disabled
// Recorder (enabled=false, the default when --telemetry is absent) records
// nothing and Flush is a no-op — callers can unconditionally instrument
// every phase without branching on whether telemetry is on.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	rootDir string
	command string
	started time.Time
	phases  []PhaseTiming
}

// NewRecorder returns a Recorder writing under rootDir when enabled.
func NewRecorder(rootDir, command string, enabled bool) *Recorder {
	return &Recorder{enabled: enabled, rootDir: rootDir, command: command, started: time.Now()}
}

// Phase times fn and records its duration under name, returning fn's error
// unchanged.
func (r *Recorder) Phase(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if !r.enabled {
		return err
	}
	r.mu.Lock()
	r.phases = append(r.phases, PhaseTiming{Name: name, DurationMs: time.Since(start).Milliseconds()})
	r.mu.Unlock()
	return err
}

// Flush writes the accumulated report to
// "<rootDir>/.xtraq/telemetry/<unix-nano>.json" and returns the path
// written, or ("", nil) when the recorder is disabled.
func (r *Recorder) Flush(warmRun bool, runErr error) (string, error) {
	if !r.enabled {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	report := RunReport{
		Command:    r.command,
		StartedAt:  r.started,
		FinishedAt: time.Now(),
		Phases:     r.phases,
		WarmRun:    warmRun,
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}

	dir := filepath.Join(r.rootDir, ".xtraq", "telemetry")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", xerrors.IO("telemetry.mkdir", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", xerrors.IO("telemetry.marshal", err)
	}

	path := filepath.Join(dir, strconv.FormatInt(report.FinishedAt.UnixNano(), 10)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", xerrors.IO("telemetry.write", err)
	}
	return path, nil
}
