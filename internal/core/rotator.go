package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// Rotation describes what RotateBaseline found.
type Rotation struct {
	HadBaseline bool // a current generation existed and became last
}

// RotateBaseline prepares the working root for a new session: last and diff
// are discarded, an empty diff is created and current becomes last.
// A missing current generation is only logged.
func RotateBaseline(l Layout, logger *slog.Logger) (Rotation, error) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, gen := range []Generation{Last, Diff} {
		if err := os.RemoveAll(l.Dir(gen)); err != nil {
			return Rotation{}, fmt.Errorf("core: remove %s: %w", gen, err)
		}
	}

	// compare cannot create its output directory
	if err := os.MkdirAll(l.Dir(Diff), 0o755); err != nil {
		return Rotation{}, fmt.Errorf("core: create diff: %w", err)
	}

	if _, err := os.Stat(l.Dir(Current)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("core: rotate: no baseline available yet", "dir", l.Dir(Current))
			return Rotation{}, nil
		}
		return Rotation{}, fmt.Errorf("core: stat current: %w", err)
	}

	if err := os.Rename(l.Dir(Current), l.Dir(Last)); err != nil {
		return Rotation{}, fmt.Errorf("core: rename current to last: %w", err)
	}
	logger.Debug("core: rotate: current moved to last", "dir", l.Dir(Last))
	return Rotation{HadBaseline: true}, nil
}
