package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteOptions stores the render options artifact shared by every render invocation.
func WriteOptions(l Layout, opts RenderOptions) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.Options()), 0o755); err != nil {
		return fmt.Errorf("core: options dir: %w", err)
	}
	if err := os.WriteFile(l.Options(), data, 0o600); err != nil {
		return fmt.Errorf("core: write options: %w", err)
	}
	return nil
}

func (s *Session) renderInvocation(j Job) Invocation {
	return Invocation{
		Stage: "capture",
		Slug:  j.Slug(),
		Name:  s.cfg.Commands.Render,
		Args: []string{
			j.Locator,
			strconv.Itoa(j.Width),
			strconv.Itoa(j.Height),
			s.cfg.RootPath,
			s.layout.Options(),
		},
	}
}

func (s *Session) startCapture(ctx context.Context) {
	s.logger.Info("core: photo session started", "jobs", len(s.jobs), "root", s.cfg.RootPath)

	if err := WriteOptions(s.layout, s.cfg.Render); err != nil {
		s.logger.Error("core: cannot write render options", "error", err)
	}
	stamp, err := WriteTimestamp(s.layout, Current, s.now())
	if err != nil {
		s.logger.Error("core: cannot write timestamp", "error", err)
	} else {
		s.logger.Debug("core: wrote timestamp", "timestamp", stamp)
	}

	for i, job := range s.jobs {
		inv := s.renderInvocation(job)
		s.logger.Debug("core: started photo session", "slug", inv.Slug, "command", inv.String())
		i := i
		go func() {
			res := s.exec.Run(ctx, inv)
			s.captured(ctx, i, res)
		}()
	}

	// an empty job set is complete before any signal arrives
	s.mu.Lock()
	next := s.captureCompleteLocked(ctx)
	s.mu.Unlock()
	if next != nil {
		next()
	}
}

// captured is the completion signal of one render invocation. Failures
// count like successes; a missing image surfaces in the diff stage.
func (s *Session) captured(ctx context.Context, i int, res Result) {
	logPath := s.record(res)

	s.mu.Lock()
	if s.stage != StageCapturing || s.records[i].Capture != nil {
		stage := s.stage
		s.mu.Unlock()
		s.logger.Warn("core: ignoring stray capture signal", "slug", res.Invocation.Slug, "stage", stage)
		return
	}
	s.captureCount++
	s.records[i].Capture = &res
	if logPath != "" {
		s.records[i].LogPaths = append(s.records[i].LogPaths, logPath)
	}
	next := s.captureCompleteLocked(ctx)
	s.mu.Unlock()

	if next != nil {
		next()
	}
}

// captureCompleteLocked moves the session out of Capturing once every job
// signalled and returns the follow-up to run after mu is released.
func (s *Session) captureCompleteLocked(ctx context.Context) func() {
	if s.stage != StageCapturing || s.captureCount != len(s.jobs) {
		return nil
	}
	s.logger.Info("core: photo session finished", "captured", s.captureCount)

	if s.cfg.UseImageMagick {
		s.stage = StageDiffing
		return func() { s.startDiff(ctx) }
	}
	s.stage = StageReportingDirect
	return s.finish
}
