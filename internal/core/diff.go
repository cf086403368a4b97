package core

import (
	"context"
	"os"
)

func (s *Session) compareInvocation(slug string) Invocation {
	return Invocation{
		Stage: "compare",
		Slug:  slug,
		Name:  s.cfg.Commands.Compare,
		Args: []string{
			"-compose", "src",
			"-highlight-color", s.cfg.HighlightColor,
			s.layout.Image(Current, slug),
			s.layout.Image(Last, slug),
			s.layout.DiffImage(slug),
		},
	}
}

func (s *Session) compositeInvocation(slug string) Invocation {
	return Invocation{
		Stage: "composite",
		Slug:  slug,
		Name:  s.cfg.Commands.Composite,
		Args: []string{
			"-alpha", "on",
			s.layout.DiffImage(slug),
			s.layout.Image(Last, slug),
			s.layout.CompositeImage(slug),
		},
	}
}

func (s *Session) startDiff(ctx context.Context) {
	s.logger.Info("core: diff generation started", "jobs", len(s.jobs))

	for i, job := range s.jobs {
		slug := job.Slug()
		if !fileExists(s.layout.Image(Last, slug)) || !fileExists(s.layout.Image(Current, slug)) {
			s.logger.Warn("core: nothing to diff, no old or new picture", "slug", slug)
			s.diffed(i, DiffSkipped, nil, nil, nil)
			continue
		}

		i := i
		go func() {
			cmp := s.exec.Run(ctx, s.compareInvocation(slug))
			cmpLog := s.record(cmp)

			// composite runs whatever compare reported; compare exits 1 on differing images
			comp := s.exec.Run(ctx, s.compositeInvocation(slug))
			compLog := s.record(comp)

			status := DiffGenerated
			if !comp.OK() {
				status = DiffFailed
			}
			s.diffed(i, status, &cmp, &comp, []string{cmpLog, compLog})
		}()
	}

	s.mu.Lock()
	next := s.diffCompleteLocked()
	s.mu.Unlock()
	if next != nil {
		next()
	}
}

// diffed is the completion signal of one job's diff chain.
func (s *Session) diffed(i int, status DiffStatus, cmp, comp *Result, logs []string) {
	s.mu.Lock()
	if s.stage != StageDiffing || s.records[i].DiffStatus != DiffPending {
		stage := s.stage
		s.mu.Unlock()
		s.logger.Warn("core: ignoring stray diff signal", "slug", s.records[i].Slug, "stage", stage)
		return
	}
	s.diffCount++
	rec := &s.records[i]
	rec.DiffStatus = status
	rec.Compare = cmp
	rec.Composite = comp
	for _, p := range logs {
		if p != "" {
			rec.LogPaths = append(rec.LogPaths, p)
		}
	}
	next := s.diffCompleteLocked()
	s.mu.Unlock()

	if next != nil {
		next()
	}
}

func (s *Session) diffCompleteLocked() func() {
	if s.stage != StageDiffing || s.diffCount != len(s.jobs) {
		return nil
	}
	s.logger.Info("core: diff generation finished", "diffed", s.diffCount)
	s.stage = StageReported
	return s.finish
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
