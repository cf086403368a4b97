// Package pipeline ties together config loading, the photo session,
// invocation log storage and the history ledger.
package pipeline

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"photobox/internal/core"
	"photobox/internal/history"
	"photobox/internal/security"
	"photobox/internal/storage"
)

// ErrSessionRunning is returned when a session already owns the working directory.
var ErrSessionRunning = errors.New("pipeline: a session is already running")

// Runner starts sessions for one config file, one at a time.
type Runner struct {
	configPath string
	logger     *slog.Logger
	exec       core.Executor

	mu      sync.Mutex
	current *core.Session
	last    *core.Summary
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the logger handed to every session.
func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithExecutor replaces the process executor of every session.
func WithExecutor(e core.Executor) Option { return func(r *Runner) { r.exec = e } }

func NewRunner(configPath string, opts ...Option) *Runner {
	r := &Runner{configPath: configPath, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ConfigPath is the pipeline file every session is built from.
func (r *Runner) ConfigPath() string { return r.configPath }

// Config loads the pipeline file as it is now.
func (r *Runner) Config() (*core.Config, error) {
	return core.LoadConfig(r.configPath)
}

// Start loads the config and launches a session in the background.
// onDone, if set, runs after the history entry has been recorded.
func (r *Runner) Start(ctx context.Context, onDone func(*core.Summary)) (*core.Session, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}

	opts := []core.Option{
		core.WithLogger(r.logger),
		core.WithLogStorage(storage.NewLogStorage(core.Layout{Root: core.NormalizeRoot(cfg.RootPath)}.Logs())),
	}
	if r.exec != nil {
		opts = append(opts, core.WithExecutor(r.exec))
	}
	sess, err := core.NewSession(*cfg, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.current != nil {
		r.mu.Unlock()
		return nil, ErrSessionRunning
	}
	r.current = sess
	r.mu.Unlock()

	// the callback may fire before Start returns, so mu is not held here
	err = sess.Start(ctx, func(sum *core.Summary) {
		r.recordHistory(cfg, sum)
		r.mu.Lock()
		r.current = nil
		r.last = sum
		r.mu.Unlock()
		if onDone != nil {
			onDone(sum)
		}
	})
	if err != nil {
		r.mu.Lock()
		r.current = nil
		r.mu.Unlock()
		return nil, err
	}
	return sess, nil
}

// Run starts a session and waits for its summary.
func (r *Runner) Run(ctx context.Context) (*core.Summary, error) {
	done := make(chan *core.Summary, 1)
	if _, err := r.Start(ctx, func(sum *core.Summary) { done <- sum }); err != nil {
		return nil, err
	}
	return <-done, nil
}

// Status reports the running session, or the last finished one.
func (r *Runner) Status() (core.Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return r.current.Status(), true
	}
	if r.last != nil {
		return core.Status{
			ID:       r.last.ID,
			Stage:    core.StageDone,
			Captured: len(r.last.Jobs),
			Diffed:   len(r.last.Jobs) - r.last.DiffCount(core.DiffPending),
			Total:    len(r.last.Jobs),
		}, true
	}
	return core.Status{}, false
}

// Running reports whether a session is in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

func (r *Runner) recordHistory(cfg *core.Config, sum *core.Summary) {
	if !cfg.History.Enabled {
		return
	}
	ledger, err := history.OpenLedger(cfg.HistoryPath())
	if err != nil {
		r.logger.Error("pipeline: cannot open history", "error", err)
		return
	}

	var priv ed25519.PrivateKey
	if cfg.History.SigningKey != "" {
		priv, err = security.LoadPrivateKey(cfg.History.SigningKey)
		if err != nil {
			r.logger.Error("pipeline: cannot load signing key, recording unsigned", "error", err)
			priv = nil
		}
	}

	e, err := ledger.Record(sum, priv)
	if err != nil {
		r.logger.Error("pipeline: cannot record history", "error", err)
		return
	}
	r.logger.Info("pipeline: history recorded", "index", e.Index, "hash", short(e.Hash))
}

// OpenHistory opens the ledger configured in cfg.
func OpenHistory(cfg *core.Config) (*history.Ledger, error) {
	return history.OpenLedger(cfg.HistoryPath())
}

// TrustedKey loads history.public_key. It returns nil when no key is pinned.
func TrustedKey(cfg *core.Config) (ed25519.PublicKey, error) {
	if cfg.History.PublicKey == "" {
		return nil, nil
	}
	return security.LoadPublicKey(cfg.History.PublicKey)
}

func short(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}

// Describe renders a one-line summary for terminals.
func Describe(sum *core.Summary) string {
	return fmt.Sprintf("session %s: %d jobs, %d capture failures, %d diffs generated, %d skipped, report %s",
		sum.ID, len(sum.Jobs), sum.CaptureFailures(),
		sum.DiffCount(core.DiffGenerated), sum.DiffCount(core.DiffSkipped), sum.ReportPath)
}
