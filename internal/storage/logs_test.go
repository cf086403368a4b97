package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLog(t *testing.T) {
	ls := NewLogStorage(filepath.Join(t.TempDir(), "logs"))

	path, err := ls.SaveLog("capture", "google.com-1000x400", "rendering...")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ls.BaseDir, "capture_google.com-1000x400.log"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rendering...", string(data))

	_, err = ls.SaveLog("capture", "google.com-1000x400", "second")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"compare":          "compare",
		"../../etc/passwd": "....etcpasswd",
		"a b/c":            "abc",
		"..":               "step",
		"":                 "step",
		"///":              "step",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitize(in), in)
	}
}

func TestReset(t *testing.T) {
	ls := NewLogStorage(filepath.Join(t.TempDir(), "logs"))
	path, err := ls.SaveLog("capture", "old", "x")
	require.NoError(t, err)

	require.NoError(t, ls.Reset())
	assert.NoFileExists(t, path)
	assert.DirExists(t, ls.BaseDir)
}
