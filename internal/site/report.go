package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Report file names written by Persist.
const (
	ReportJSONName = "build-report.json"
	ReportTextName = "build-report.txt"
)

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// BuildReport captures what a generation run did.
type BuildReport struct {
	SchemaVersion int
	BuildID       string
	Source        string
	Dest          string
	Start         time.Time
	End           time.Time
	// Entries counts visited source entries by classified kind.
	Entries         map[string]int
	Directories     int
	StaticCopied    int
	Templates       int
	RenderedPages   int
	Outputs         []string
	StageDurations  map[StageName]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Errors          []error
	Outcome         BuildOutcome
	// Fingerprints maps Markdown source paths to their content fingerprint.
	Fingerprints map[string]string
}

func newBuildReport(src, dest string) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		Source:          src,
		Dest:            dest,
		Start:           time.Now(),
		Entries:         make(map[string]int),
		StageDurations:  make(map[StageName]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		Fingerprints:    make(map[string]string),
	}
}

func (r *BuildReport) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

// deriveOutcome sets the Outcome field based on recorded errors.
func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) == 0 {
		r.Outcome = OutcomeSuccess
		return
	}
	for _, e := range r.Errors {
		var se *StageError
		if errors.As(e, &se) && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	r.Outcome = OutcomeFailed
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("build=%s dirs=%d copied=%d templates=%d rendered=%d markdown=%d duration=%s errors=%d outcome=%s",
		r.BuildID, r.Directories, r.StaticCopied, r.Templates, r.RenderedPages, len(r.Fingerprints),
		dur.Truncate(time.Millisecond), len(r.Errors), r.Outcome)
}

// BuildReportSerializable is the JSON form of a BuildReport.
type BuildReportSerializable struct {
	SchemaVersion   int                   `json:"schema_version"`
	BuildID         string                `json:"build_id"`
	Source          string                `json:"source"`
	Dest            string                `json:"dest"`
	Start           time.Time             `json:"start"`
	End             time.Time             `json:"end"`
	Entries         map[string]int        `json:"entries"`
	Directories     int                   `json:"directories"`
	StaticCopied    int                   `json:"static_copied"`
	Templates       int                   `json:"templates"`
	RenderedPages   int                   `json:"rendered_pages"`
	Outputs         []string              `json:"outputs"`
	StageDurations  map[string]float64    `json:"stage_durations_ms"`
	StageErrorKinds map[string]string     `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount `json:"stage_counts"`
	Errors          []string              `json:"errors"`
	Outcome         string                `json:"outcome"`
	Fingerprints    map[string]string     `json:"fingerprints"`
}

// sanitizedCopy converts errors and typed keys for JSON friendliness. Slices and
// maps are never nil so consumers see [] and {} rather than null.
func (r *BuildReport) sanitizedCopy() *BuildReportSerializable {
	s := &BuildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		BuildID:         r.BuildID,
		Source:          r.Source,
		Dest:            r.Dest,
		Start:           r.Start,
		End:             r.End,
		Entries:         make(map[string]int, len(r.Entries)),
		Directories:     r.Directories,
		StaticCopied:    r.StaticCopied,
		Templates:       r.Templates,
		RenderedPages:   r.RenderedPages,
		Outputs:         append([]string{}, r.Outputs...),
		StageDurations:  make(map[string]float64, len(r.StageDurations)),
		StageErrorKinds: make(map[string]string, len(r.StageErrorKinds)),
		StageCounts:     make(map[string]StageCount, len(r.StageCounts)),
		Errors:          make([]string, len(r.Errors)),
		Outcome:         string(r.Outcome),
		Fingerprints:    make(map[string]string, len(r.Fingerprints)),
	}
	for k, v := range r.Entries {
		s.Entries[k] = v
	}
	for k, v := range r.StageDurations {
		s.StageDurations[string(k)] = float64(v) / float64(time.Millisecond)
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[string(k)] = string(v)
	}
	for k, v := range r.StageCounts {
		s.StageCounts[string(k)] = v
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for k, v := range r.Fingerprints {
		s.Fingerprints[k] = v
	}
	return s
}

// Persist writes the report atomically into dir. It writes two files:
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
//
// Best effort; errors are returned for caller logging but do not change the build outcome.
func (r *BuildReport) Persist(dir string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}

	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, ReportJSONName), jb); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, ReportTextName), []byte(r.Summary()+"\n")); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	// #nosec G306 -- reports are meant to be readable by CI tooling.
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
