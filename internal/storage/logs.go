package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogStorage keeps the combined output of every external invocation.
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a new log storage handler
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// Reset drops the logs of the previous session.
func (ls *LogStorage) Reset() error {
	if err := os.RemoveAll(ls.BaseDir); err != nil {
		return fmt.Errorf("storage: reset logs: %w", err)
	}
	return os.MkdirAll(ls.BaseDir, 0o755)
}

// SaveLog saves the output of one invocation of stage for slug.
// A later call for the same pair overwrites the file.
func (ls *LogStorage) SaveLog(stage, slug, output string) (string, error) {
	if err := os.MkdirAll(ls.BaseDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", sanitize(stage), sanitize(slug))
	filePath := filepath.Join(ls.BaseDir, filename)

	if err := os.WriteFile(filePath, []byte(output), 0o644); err != nil {
		return "", fmt.Errorf("storage: write log: %w", err)
	}
	return filePath, nil
}

// sanitize removes special characters from names used in filenames
func sanitize(name string) string {
	clean := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		r := name[i]
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 || string(clean) == "." || string(clean) == ".." {
		return "step"
	}
	return string(clean)
}
