package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is one viewport descriptor (e.g. "1000x400").
type Size struct {
	Width  int
	Height int
}

// ParseSize parses a "<width>x<height>" descriptor.
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.TrimSpace(s), "x")
	if !ok {
		return Size{}, fmt.Errorf("core: invalid size %q: want <width>x<height>", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return Size{}, fmt.Errorf("core: invalid width in size %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return Size{}, fmt.Errorf("core: invalid height in size %q", s)
	}
	return Size{Width: width, Height: height}, nil
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Job is one (locator, viewport) unit carried through capture and diff.
type Job struct {
	Locator string // target to render, usually a URL
	Width   int
	Height  int
}

// Slug names every artifact of the job across stages.
func (j Job) Slug() string {
	return Slug(j.Locator, j.Width, j.Height)
}

func (j Job) String() string {
	return fmt.Sprintf("%s|%dx%d", j.Locator, j.Width, j.Height)
}

// Slug derives the filesystem-safe artifact key for a locator and viewport.
// The scheme is dropped and every byte outside [A-Za-z0-9._-] becomes '-'.
func Slug(locator string, width, height int) string {
	loc := locator
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(loc, scheme) {
			loc = loc[len(scheme):]
			break
		}
	}

	var b strings.Builder
	b.Grow(len(loc) + 12)
	for i := 0; i < len(loc); i++ {
		c := loc[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('-')
		}
	}
	fmt.Fprintf(&b, "-%dx%d", width, height)
	return b.String()
}
