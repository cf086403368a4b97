package core

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobox/internal/logging"
)

func TestBuildJobSetIsLocatorMajor(t *testing.T) {
	sizes := []Size{{1000, 400}, {1200, 600}}
	jobs := BuildJobSet([]string{"http://google.com", "http://4waisenkinder.de"}, sizes)

	require.Len(t, jobs, 4)
	assert.Equal(t, "http://google.com|1000x400", jobs[0].String())
	assert.Equal(t, "http://google.com|1200x600", jobs[1].String())
	assert.Equal(t, "http://4waisenkinder.de|1000x400", jobs[2].String())
	assert.Equal(t, "http://4waisenkinder.de|1200x600", jobs[3].String())
}

func TestBuildJobSetSizes(t *testing.T) {
	for _, tc := range []struct {
		locators, sizes int
	}{{0, 0}, {0, 3}, {3, 0}, {1, 1}, {3, 2}, {5, 4}} {
		locs := make([]string, tc.locators)
		for i := range locs {
			locs[i] = "http://example.com/" + string(rune('a'+i))
		}
		sizes := make([]Size, tc.sizes)
		for i := range sizes {
			sizes[i] = Size{Width: 100 * (i + 1), Height: 50}
		}
		jobs := BuildJobSet(locs, sizes)
		require.Len(t, jobs, tc.locators*tc.sizes)
		for i, j := range jobs {
			assert.Equal(t, locs[i/tc.sizes], j.Locator)
			assert.Equal(t, sizes[i%tc.sizes].Width, j.Width)
		}
	}
}

func TestSlug(t *testing.T) {
	testCases := []struct {
		locator string
		w, h    int
		want    string
	}{
		{"http://google.com", 1000, 400, "google.com-1000x400"},
		{"https://google.com/", 1000, 400, "google.com--1000x400"},
		{"http://example.com/a/b", 320, 480, "example.com-a-b-320x480"},
		{"localhost:8080/page?x=1&y=2", 800, 600, "localhost-8080-page-x-1-y-2-800x600"},
		{"http://exämple.com", 10, 10, "ex--mple.com-10x10"},
		{"file:///tmp/index.html", 10, 20, "file----tmp-index.html-10x20"},
	}
	safe := regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	for _, tc := range testCases {
		t.Run(tc.locator, func(t *testing.T) {
			got := Slug(tc.locator, tc.w, tc.h)
			assert.Equal(t, tc.want, got)
			assert.Regexp(t, safe, got)
			assert.Equal(t, got, Job{Locator: tc.locator, Width: tc.w, Height: tc.h}.Slug())
		})
	}
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize(" 1000x400 ")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 1000, Height: 400}, s)
	assert.Equal(t, "1000x400", s.String())

	for _, bad := range []string{"", "1000", "x400", "1000x", "0x400", "-5x10", "axb"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestSlugsKeepOrder(t *testing.T) {
	jobs := BuildJobSet([]string{"http://b.com", "http://a.com"}, []Size{{1, 2}})
	assert.Equal(t, []string{"b.com-1x2", "a.com-1x2"}, Slugs(jobs))
}

func TestCheckSlugsRejectsCollisions(t *testing.T) {
	sizes := []Size{{Width: 1000, Height: 400}}

	err := CheckSlugs(BuildJobSet([]string{"http://a.com/x?y", "http://a.com/x-y"}, sizes))
	require.ErrorIs(t, err, ErrDuplicateSlug)
	assert.Contains(t, err.Error(), "a.com-x-y-1000x400")

	err = CheckSlugs(BuildJobSet([]string{"http://a.com", "https://a.com"}, sizes))
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	assert.NoError(t, CheckSlugs(BuildJobSet([]string{"http://a.com", "http://b.com"},
		[]Size{{Width: 1000, Height: 400}, {Width: 800, Height: 600}})))
}

func TestNewSessionRejectsCollidingSlugs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RootPath = t.TempDir()
	cfg.URLs = []string{"http://a.com/x?y", "http://a.com/x-y"}
	cfg.ScreenSizes = []string{"1000x400"}

	_, err := NewSession(cfg, WithLogger(logging.Discard()))
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}
