// Package report renders the static index.html of a photo session.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

//go:embed tpl/*.tpl
var templates embed.FS

// Variants lists the available templates.
var Variants = []string{"default", "magic"}

// Timestamps is the {current, last} pair shown in the header.
type Timestamps struct {
	Current string
	Last    string
}

// Data feeds a template.
type Data struct {
	Pictures   []string // slugs in job set order
	Timestamps Timestamps
}

// Render executes the named variant.
func Render(variant string, data Data) ([]byte, error) {
	tpl, err := template.ParseFS(templates, "tpl/"+variant+".tpl")
	if err != nil {
		return nil, fmt.Errorf("report: unknown template %q: %w", variant, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("report: render %s: %w", variant, err)
	}
	return buf.Bytes(), nil
}

// Write renders variant into path.
func Write(path, variant string, data Data) error {
	out, err := Render(variant, data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}
