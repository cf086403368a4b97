package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// NotAvailable stands in for a generation without a timestamp record.
const NotAvailable = "Not available"

// TimestampFormat is how capture start times are recorded.
const TimestampFormat = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// TimestampRecord is persisted once per capture batch.
type TimestampRecord struct {
	Timestamp string `json:"timestamp"`
}

// Timestamps is the pair shown in the report.
type Timestamps struct {
	Current string `json:"current"`
	Last    string `json:"last"`
}

// WriteTimestamp records t for gen and returns the stored string.
func WriteTimestamp(l Layout, gen Generation, t time.Time) (string, error) {
	stamp := t.Format(TimestampFormat)
	data, err := json.Marshal(TimestampRecord{Timestamp: stamp})
	if err != nil {
		return "", err
	}
	path := l.Timestamp(gen)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("core: timestamp dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("core: write timestamp: %w", err)
	}
	return stamp, nil
}

// ReadTimestamp returns the recorded timestamp of gen, or NotAvailable.
func ReadTimestamp(l Layout, gen Generation, logger *slog.Logger) string {
	data, err := os.ReadFile(l.Timestamp(gen))
	if err != nil {
		logger.Warn("core: no timestamp for photo session", "generation", gen, "error", err)
		return NotAvailable
	}
	var rec TimestampRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Timestamp == "" {
		logger.Warn("core: unreadable timestamp for photo session", "generation", gen, "error", err)
		return NotAvailable
	}
	return rec.Timestamp
}

// ReadTimestamps reads the current and last records.
func ReadTimestamps(l Layout, logger *slog.Logger) Timestamps {
	if logger == nil {
		logger = slog.Default()
	}
	return Timestamps{
		Current: ReadTimestamp(l, Current, logger),
		Last:    ReadTimestamp(l, Last, logger),
	}
}
