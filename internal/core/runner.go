package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"photobox/internal/storage"
)

// ErrSessionStarted is returned when Start is called twice.
var ErrSessionStarted = errors.New("core: session already started")

// JobRecord is what a session learned about one job.
type JobRecord struct {
	Job        Job
	Slug       string
	Capture    *Result
	Compare    *Result
	Composite  *Result
	DiffStatus DiffStatus
	LogPaths   []string
}

// Summary is handed to the completion callback once the report is written.
type Summary struct {
	ID         string
	Root       string
	Template   string
	Rotation   Rotation
	Jobs       []JobRecord
	Timestamps Timestamps
	ReportPath string
	ReportErr  error
	Started    time.Time
	Finished   time.Time
}

// CaptureFailures counts render invocations that did not exit cleanly.
func (s *Summary) CaptureFailures() int {
	n := 0
	for _, j := range s.Jobs {
		if j.Capture != nil && !j.Capture.OK() {
			n++
		}
	}
	return n
}

// DiffCount counts jobs with the given diff status.
func (s *Summary) DiffCount(status DiffStatus) int {
	n := 0
	for _, j := range s.Jobs {
		if j.DiffStatus == status {
			n++
		}
	}
	return n
}

// Status is a point-in-time view of a running session.
type Status struct {
	ID       string `json:"id"`
	Stage    Stage  `json:"stage"`
	Captured int    `json:"captured"`
	Diffed   int    `json:"diffed"`
	Total    int    `json:"total"`
}

// Session runs one photo session: rotate, capture, optionally diff, report.
// All counters and the stage live behind mu; every completion signal goes
// through it, so each transition fires exactly once.
type Session struct {
	cfg    Config
	layout Layout
	jobs   []Job
	exec   Executor
	logs   *storage.LogStorage
	logger *slog.Logger
	now    func() time.Time
	id     string

	mu           sync.Mutex
	stage        Stage
	captureCount int
	diffCount    int
	records      []JobRecord
	rotation     Rotation
	timestamps   Timestamps
	reportPath   string
	reportErr    error
	started      time.Time
	onDone       func(*Summary)
}

// Option customises a Session.
type Option func(*Session)

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option { return func(s *Session) { s.exec = e } }

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithLogStorage sets where invocation output is kept. nil disables it.
func WithLogStorage(ls *storage.LogStorage) Option { return func(s *Session) { s.logs = ls } }

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// NewSession builds the job set of cfg and prepares an idle session.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		id:     uuid.NewString(),
	}
	for _, o := range opts {
		o(s)
	}

	if s.cfg.RootPath == "" {
		s.logger.Error("core: no root_path set, using working directory")
		s.cfg.RootPath = "./"
	}
	s.cfg.RootPath = NormalizeRoot(s.cfg.RootPath)
	s.layout = Layout{Root: s.cfg.RootPath}

	jobs, err := s.cfg.Jobs()
	if err != nil {
		return nil, err
	}
	s.jobs = jobs
	s.records = make([]JobRecord, len(jobs))
	for i, j := range jobs {
		s.records[i] = JobRecord{Job: j, Slug: j.Slug()}
	}

	if s.exec == nil {
		s.exec = NewExecutor(s.cfg.Timeout)
	}
	s.logger = s.logger.With("session", s.id)
	return s, nil
}

// ID identifies the session in logs and history.
func (s *Session) ID() string { return s.id }

// Jobs returns the job set.
func (s *Session) Jobs() []Job { return s.jobs }

// Layout returns the working directory layout.
func (s *Session) Layout() Layout { return s.layout }

// Status returns a snapshot of the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:       s.id,
		Stage:    s.stage,
		Captured: s.captureCount,
		Diffed:   s.diffCount,
		Total:    len(s.jobs),
	}
}

// Start rotates the baseline and launches the capture stage. It returns
// as soon as every render invocation has been launched; onDone is called
// exactly once, from whichever goroutine delivers the final signal.
func (s *Session) Start(ctx context.Context, onDone func(*Summary)) error {
	s.mu.Lock()
	if s.stage != StageIdle {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.stage = StageRotating
	s.onDone = onDone
	s.started = s.now()
	s.mu.Unlock()

	rot, err := RotateBaseline(s.layout, s.logger)
	if err != nil {
		s.logger.Error("core: baseline rotation failed, continuing", "error", err)
	}
	if s.logs != nil {
		if err := s.logs.Reset(); err != nil {
			s.logger.Warn("core: cannot reset invocation logs", "error", err)
		}
	}

	s.mu.Lock()
	s.rotation = rot
	s.stage = StageCapturing
	s.mu.Unlock()

	s.startCapture(ctx)
	return nil
}

// Run starts the session and waits for the report.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	done := make(chan *Summary, 1)
	if err := s.Start(ctx, func(sum *Summary) { done <- sum }); err != nil {
		return nil, err
	}
	return <-done, nil
}

// finish runs the report stage and fires the completion callback. Only the
// goroutine that moved the session out of Capturing or Diffing calls it.
func (s *Session) finish() {
	s.mu.Lock()
	if s.stage == StageReportingDirect {
		s.stage = StageReported
	}
	s.mu.Unlock()

	ts, path, err := s.writeReport()

	s.mu.Lock()
	s.timestamps = ts
	s.reportPath = path
	s.reportErr = err
	s.stage = StageDone
	sum := s.summaryLocked()
	cb := s.onDone
	s.onDone = nil
	s.mu.Unlock()

	s.logger.Info("core: photo session done",
		"jobs", len(sum.Jobs),
		"capture_failures", sum.CaptureFailures(),
		"duration", sum.Finished.Sub(sum.Started))

	if cb != nil {
		cb(sum)
	}
}

func (s *Session) summaryLocked() *Summary {
	jobs := make([]JobRecord, len(s.records))
	copy(jobs, s.records)
	return &Summary{
		ID:         s.id,
		Root:       s.cfg.RootPath,
		Template:   s.cfg.Template(),
		Rotation:   s.rotation,
		Jobs:       jobs,
		Timestamps: s.timestamps,
		ReportPath: s.reportPath,
		ReportErr:  s.reportErr,
		Started:    s.started,
		Finished:   s.now(),
	}
}

// record logs an invocation result and stores its output.
func (s *Session) record(res Result) string {
	inv := res.Invocation
	if res.OK() {
		s.logger.Info("core: "+inv.Stage+" done", "slug", inv.Slug, "duration", res.Duration)
	} else {
		s.logger.Error("core: "+inv.Stage+" failed",
			"slug", inv.Slug,
			"exit_code", res.ExitCode,
			"error", res.Err,
			"output", tail(res.Output, 512))
	}
	s.logger.Debug("core: invocation output", "slug", inv.Slug, "command", inv.String(), "output", res.Output)

	if s.logs == nil {
		return ""
	}
	path, err := s.logs.SaveLog(inv.Stage, inv.Slug, res.Output)
	if err != nil {
		s.logger.Warn("core: cannot save invocation log", "slug", inv.Slug, "error", err)
		return ""
	}
	return path
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
