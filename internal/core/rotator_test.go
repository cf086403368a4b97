package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobox/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRotateBaselineMovesCurrentToLast(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writeFile(t, filepath.Join(l.Dir(Current), "test.txt"), "joooo")
	writeFile(t, l.Image(Current, "a-1x1"), "png bytes")

	rot, err := RotateBaseline(l, logging.Discard())
	require.NoError(t, err)
	assert.True(t, rot.HadBaseline)

	data, err := os.ReadFile(filepath.Join(l.Dir(Last), "test.txt"))
	require.NoError(t, err)
	assert.Equal(t, "joooo", string(data))
	data, err = os.ReadFile(l.Image(Last, "a-1x1"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	assert.NoDirExists(t, l.Dir(Current))
	assert.DirExists(t, l.Dir(Diff))
	entries, err := os.ReadDir(l.Dir(Diff))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRotateBaselineDiscardsOldGenerations(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writeFile(t, l.Image(Last, "old"), "older")
	writeFile(t, l.DiffImage("old"), "diff")
	writeFile(t, l.Image(Current, "new"), "newer")

	_, err := RotateBaseline(l, logging.Discard())
	require.NoError(t, err)

	assert.NoFileExists(t, l.Image(Last, "old"))
	assert.FileExists(t, l.Image(Last, "new"))
	assert.NoFileExists(t, l.DiffImage("old"))
	assert.DirExists(t, l.Dir(Diff))
}

func TestRotateBaselineWithoutCurrent(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writeFile(t, l.Image(Last, "stale"), "x")

	rot, err := RotateBaseline(l, logging.Discard())
	require.NoError(t, err)
	assert.False(t, rot.HadBaseline)
	assert.NoDirExists(t, l.Dir(Last))
	assert.DirExists(t, l.Dir(Diff))
}
