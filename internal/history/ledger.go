package history

import (
	"bufio"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"photobox/internal/core"
	"photobox/internal/security"
)

// Ledger is an append-only list of entries persisted as JSON lines.
type Ledger struct {
	mu      sync.Mutex
	entries []*Entry
	path    string
}

// OpenLedger loads an existing ledger file. A missing file yields an empty ledger.
func OpenLedger(path string) (*Ledger, error) {
	l := &Ledger{path: path}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open ledger: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("history: decode entry %d: %w", len(l.entries), err)
		}
		l.entries = append(l.entries, &e)
	}
	return l, nil
}

// Path is the ledger file.
func (l *Ledger) Path() string { return l.path }

// Record appends an entry for sum. When priv is non-nil the entry is signed.
func (l *Ledger) Record(sum *core.Summary, priv ed25519.PrivateKey) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := ""
	if n := len(l.entries); n > 0 {
		prev = l.entries[n-1].Hash
	}
	e, err := NewEntry(len(l.entries), prev, sum)
	if err != nil {
		return nil, err
	}
	if priv != nil {
		e.Signature = security.Sign(priv, []byte(e.Hash))
		e.PubKey = hex.EncodeToString(priv.Public().(ed25519.PublicKey))
	}
	if err := l.appendLocked(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (l *Ledger) appendLocked(e *Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("history: mkdir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("history: open ledger file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(e); err != nil {
		return fmt.Errorf("history: write ledger file: %w", err)
	}
	l.entries = append(l.entries, e)
	return nil
}

// Entries returns a copy of the ledger entries.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = *e
	}
	return out
}

// LastHash returns the hash of the newest entry, or "".
func (l *Ledger) LastHash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[len(l.entries)-1].Hash
}
