package core

import (
	"errors"
	"fmt"
)

// ErrDuplicateSlug is returned when two jobs would write the same artifacts.
var ErrDuplicateSlug = errors.New("core: duplicate slug")

// BuildJobSet expands locators × sizes into the ordered job set.
// Locators are the outer loop, so the report lists every size of a page together.
func BuildJobSet(locators []string, sizes []Size) []Job {
	jobs := make([]Job, 0, len(locators)*len(sizes))
	for _, loc := range locators {
		for _, size := range sizes {
			jobs = append(jobs, Job{Locator: loc, Width: size.Width, Height: size.Height})
		}
	}
	return jobs
}

// CheckSlugs rejects job sets in which two jobs share a slug, e.g.
// "a.com/x?y" and "a.com/x-y", or the same locator listed twice.
func CheckSlugs(jobs []Job) error {
	seen := make(map[string]Job, len(jobs))
	for _, j := range jobs {
		slug := j.Slug()
		if prev, ok := seen[slug]; ok {
			return fmt.Errorf("%w %s: %s and %s", ErrDuplicateSlug, slug, prev, j)
		}
		seen[slug] = j
	}
	return nil
}

// Slugs returns the artifact keys of jobs in job set order.
func Slugs(jobs []Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Slug()
	}
	return out
}
