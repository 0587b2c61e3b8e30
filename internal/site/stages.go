package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitejam/internal/logfields"
	"git.home.luguber.info/inful/sitejam/internal/metrics"
	"git.home.luguber.info/inful/sitejam/internal/observability"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageWalk        StageName = "walk"
	StageMaterialize StageName = "materialize"
	StageRender      StageName = "render"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries state across stages.
type BuildState struct {
	Generator *Generator
	Plan      *Plan
	Report    *BuildReport
	Timings   map[StageName]time.Duration
}

type namedStage struct {
	name StageName
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the first
// error. Cancellation is only observed between stages.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	rec := bs.Generator.recorder
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.name, err)
			recordStageError(bs.Report, rec, se)
			return se
		}

		t0 := time.Now()
		err := st.fn(observability.WithStage(ctx, string(st.name)), bs)
		dur := time.Since(t0)
		bs.Timings[st.name] = dur
		bs.Report.StageDurations[st.name] = dur
		rec.ObserveStageDuration(string(st.name), dur)
		bs.Generator.logger.DebugContext(ctx, "stage finished",
			logfields.Stage(string(st.name)),
			logfields.DurationMS(float64(dur)/float64(time.Millisecond)))

		if err != nil {
			var se *StageError
			if !errors.As(err, &se) {
				se = newFatalStageError(st.name, err)
			}
			recordStageError(bs.Report, rec, se)
			return se
		}

		sc := bs.Report.StageCounts[st.name]
		sc.Success++
		bs.Report.StageCounts[st.name] = sc
		rec.IncStageResult(string(st.name), metrics.ResultSuccess)
	}
	return nil
}

func recordStageError(r *BuildReport, rec metrics.Recorder, se *StageError) {
	r.StageErrorKinds[se.Stage] = se.Kind
	sc := r.StageCounts[se.Stage]
	result := metrics.ResultFatal
	if se.Kind == StageErrorCanceled {
		sc.Canceled++
		result = metrics.ResultCanceled
	} else {
		sc.Fatal++
	}
	r.StageCounts[se.Stage] = sc
	r.Errors = append(r.Errors, se)
	rec.IncStageResult(string(se.Stage), result)
}

// stageWalk builds the context tree and the plan. Nothing is written.
func stageWalk(ctx context.Context, bs *BuildState) error {
	plan, err := bs.Generator.walk(ctx)
	if err != nil {
		return err
	}
	bs.Plan = plan
	for k, v := range plan.Entries {
		bs.Report.Entries[k] = v
	}
	for k, v := range plan.Fingerprints {
		bs.Report.Fingerprints[k] = v
	}
	bs.Report.Templates = len(plan.Jobs)
	return nil
}

// stageMaterialize mirrors the directory structure and copies static files.
func stageMaterialize(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	if err := ensureDir(g.dest); err != nil {
		return err
	}
	for _, rel := range bs.Plan.Dirs {
		if err := ensureDir(g.outputPath(rel)); err != nil {
			return err
		}
		bs.Report.Directories++
	}
	for _, c := range bs.Plan.Copies {
		g.logger.LogAttrs(ctx, g.progress, "copying", logfields.File(c.Rel), logfields.Kind("static"))
		if err := copyFile(c.From, c.To); err != nil {
			return err
		}
		bs.Report.StaticCopied++
		bs.Report.Outputs = append(bs.Report.Outputs, c.Rel)
	}
	return nil
}

// stageRender drains the job queue.
func stageRender(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	s := &scheduler{
		dest:     g.dest,
		engine:   g.engine,
		logger:   g.logger,
		progress: g.progress,
		recorder: g.recorder,
	}
	written, err := s.run(ctx, bs.Plan)
	bs.Report.RenderedPages += len(written)
	bs.Report.Outputs = append(bs.Report.Outputs, written...)
	return err
}
