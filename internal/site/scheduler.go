package site

import (
	"context"
	"log/slog"

	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
	"git.home.luguber.info/inful/sitejam/internal/logfields"
	"git.home.luguber.info/inful/sitejam/internal/metrics"
	"git.home.luguber.info/inful/sitejam/internal/templates"
)

// scheduler drains the job queue once the context tree is complete.
type scheduler struct {
	dest     string
	engine   *templates.Engine
	logger   *slog.Logger
	progress slog.Level
	recorder metrics.Recorder
}

// run executes jobs in discovery order and returns the output-relative paths it
// wrote. A singular job renders its directory; a collection job renders each
// entry of its directory on its own.
func (s *scheduler) run(ctx context.Context, plan *Plan) ([]string, error) {
	root := plan.Root.Data()
	var written []string

	for _, job := range plan.Jobs {
		if !job.Collection {
			dest := job.DestPath(job.Name)
			s.logger.LogAttrs(ctx, s.progress, "rendering", logfields.Template(job.Source), logfields.Dest(dest))
			if err := s.render(job, job.Dir.Data(), root, dest); err != nil {
				return written, err
			}
			written = append(written, dest)
			s.recorder.IncRenderedPage(false)
			continue
		}

		for _, key := range job.Dir.Keys() {
			entry, _ := job.Dir.Get(key)
			dest := job.DestPath(key)
			s.logger.LogAttrs(ctx, s.progress, "rendering",
				logfields.Template(job.Source), logfields.Key(key), logfields.Dest(dest))
			if err := s.render(job, entry.Data(), root, dest); err != nil {
				return written, err
			}
			written = append(written, dest)
			s.recorder.IncRenderedPage(true)
		}
	}
	return written, nil
}

func (s *scheduler) render(job Job, data, root any, dest string) error {
	out, err := s.engine.Execute(job.Template, data, templates.Env{
		Root:     root,
		RootPath: job.Dir.RootPath(),
		DestPath: dest,
		Keys:     job.Dir.KeysOf,
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTemplate, "cannot render "+job.Source).
			Fatal().
			WithContext(logfields.KeyTemplate, job.Source).
			WithContext(logfields.KeyDest, dest).
			Build()
	}
	if _, err := templates.WriteOutput(s.dest, dest, []byte(out)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write "+dest).
			Fatal().WithContext(logfields.KeyDest, dest).Build()
	}
	return nil
}
