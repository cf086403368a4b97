// Package history keeps a tamper-evident JSONL ledger of finished photo sessions.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"photobox/internal/core"
	"photobox/pkg/utils"
)

// JobOutcome is the ledger view of one job.
type JobOutcome struct {
	Slug        string `json:"slug"`
	CaptureExit int    `json:"captureExit"`
	CaptureOK   bool   `json:"captureOk"`
	Diff        string `json:"diff,omitempty"`
	ImageHash   string `json:"imageHash,omitempty"` // sha256 of img/current/<slug>.png
}

// Entry is one finished session.
type Entry struct {
	Index     int          `json:"index"`
	Timestamp string       `json:"timestamp"`
	SessionID string       `json:"sessionId"`
	Root      string       `json:"root"`
	Template  string       `json:"template"`
	Current   string       `json:"current"`
	Last      string       `json:"last"`
	Jobs      []JobOutcome `json:"jobs"`
	PrevHash  string       `json:"prevHash"`
	Hash      string       `json:"hash"`
	Signature string       `json:"signature,omitempty"`
	PubKey    string       `json:"pubKey,omitempty"`
}

// canonicalData is what Hash covers: everything but Hash, Signature and PubKey.
func (e *Entry) canonicalData() ([]byte, error) {
	view := *e
	view.Hash, view.Signature, view.PubKey = "", "", ""
	return json.Marshal(view)
}

// ComputeHash calculates SHA-256 over canonicalData.
func (e *Entry) ComputeHash() (string, error) {
	data, err := e.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Outcomes converts a session summary into ledger job outcomes, hashing
// every current capture that exists.
func Outcomes(sum *core.Summary) ([]JobOutcome, error) {
	layout := core.Layout{Root: sum.Root}
	out := make([]JobOutcome, 0, len(sum.Jobs))
	for _, j := range sum.Jobs {
		o := JobOutcome{Slug: j.Slug, Diff: string(j.DiffStatus)}
		if j.Capture != nil {
			o.CaptureExit = j.Capture.ExitCode
			o.CaptureOK = j.Capture.OK()
		}
		h, err := utils.HashFile(layout.Image(core.Current, j.Slug))
		switch {
		case err == nil:
			o.ImageHash = h
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("history: hash %s: %w", j.Slug, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// NewEntry builds an unsigned entry for sum and computes its hash.
func NewEntry(index int, prevHash string, sum *core.Summary) (*Entry, error) {
	jobs, err := Outcomes(sum)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		Index:     index,
		Timestamp: sum.Finished.UTC().Format(time.RFC3339),
		SessionID: sum.ID,
		Root:      sum.Root,
		Template:  sum.Template,
		Current:   sum.Timestamps.Current,
		Last:      sum.Timestamps.Last,
		Jobs:      jobs,
		PrevHash:  prevHash,
	}
	h, err := e.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("history: compute entry hash: %w", err)
	}
	e.Hash = h
	return e, nil
}
