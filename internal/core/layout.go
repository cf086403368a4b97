package core

import "path/filepath"

// Generation is one of the three artifact sets under <root>/img.
type Generation string

const (
	Current Generation = "current"
	Last    Generation = "last"
	Diff    Generation = "diff"
)

// Layout maps artifacts to paths below a working root.
type Layout struct {
	Root string
}

// ImageRoot holds every generation.
func (l Layout) ImageRoot() string { return filepath.Join(l.Root, "img") }

func (l Layout) Dir(gen Generation) string {
	return filepath.Join(l.ImageRoot(), string(gen))
}

// Image is the capture of slug in gen.
func (l Layout) Image(gen Generation, slug string) string {
	return filepath.Join(l.Dir(gen), slug+".png")
}

// DiffImage is the highlighted difference written by compare.
func (l Layout) DiffImage(slug string) string {
	return filepath.Join(l.Dir(Diff), slug+"-diff.png")
}

// CompositeImage is the diff overlaid onto the baseline.
func (l Layout) CompositeImage(slug string) string {
	return filepath.Join(l.Dir(Diff), slug+".png")
}

func (l Layout) Timestamp(gen Generation) string {
	return filepath.Join(l.Dir(gen), "timestamp.json")
}

func (l Layout) Options() string { return filepath.Join(l.Root, "options.json") }
func (l Layout) Index() string   { return filepath.Join(l.Root, "index.html") }
func (l Layout) Logs() string    { return filepath.Join(l.Root, "logs") }
func (l Layout) History() string { return filepath.Join(l.Root, "history.jsonl") }
