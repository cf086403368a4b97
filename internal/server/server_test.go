package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobox/internal/core"
	"photobox/internal/history"
	"photobox/internal/logging"
	"photobox/internal/pipeline"
	"photobox/internal/security"
)

type stubExecutor struct {
	release chan struct{}
}

func (s *stubExecutor) Run(ctx context.Context, inv core.Invocation) core.Result {
	if s.release != nil {
		<-s.release
	}
	if inv.Stage == "capture" {
		path := core.Layout{Root: inv.Args[3]}.Image(core.Current, inv.Slug)
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		_ = os.WriteFile(path, []byte(inv.Slug), 0o644)
	}
	return core.Result{Invocation: inv}
}

func setup(t *testing.T, exec core.Executor, historyLines ...string) (*httptest.Server, *pipeline.Runner, string) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "photos")
	lines := []string{
		"root_path: " + root,
		"urls: [http://google.com]",
		"screen_sizes: [1000x400]",
		"history:",
		"  enabled: true",
	}
	for _, h := range historyLines {
		lines = append(lines, "  "+h)
	}
	cfg := strings.Join(lines, "\n")
	cfgPath := filepath.Join(dir, "photobox.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	runner := pipeline.NewRunner(cfgPath, pipeline.WithLogger(logging.Discard()), pipeline.WithExecutor(exec))
	srv := httptest.NewServer(New(context.Background(), runner, logging.Discard()))
	t.Cleanup(srv.Close)
	return srv, runner, root
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestStartSessionAndStatus(t *testing.T) {
	exec := &stubExecutor{release: make(chan struct{})}
	srv, runner, _ := setup(t, exec)

	resp, err := http.Get(srv.URL + "/sessions/current")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var st map[string]any
	decode(t, resp, &st)
	assert.Equal(t, "capturing", st["stage"])
	assert.EqualValues(t, 1, st["total"])

	resp, err = http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(exec.release)
	require.Eventually(t, func() bool { return !runner.Running() }, 5*time.Second, 10*time.Millisecond)

	resp, err = http.Get(srv.URL + "/sessions/current")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, "done", st["stage"])
	assert.EqualValues(t, 1, st["captured"])
}

func TestHistoryRoutes(t *testing.T) {
	srv, runner, root := setup(t, &stubExecutor{})
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/history")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []history.Entry
	decode(t, resp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "default", entries[0].Template)

	resp, err = http.Get(srv.URL + "/history/verify")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// break the chain on disk
	path := filepath.Join(root, "history.jsonl")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), `"index":0`, `"index":7`, 1)), 0o644))

	resp, err = http.Get(srv.URL + "/history/verify")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReportServing(t *testing.T) {
	srv, runner, _ := setup(t, &stubExecutor{})
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + "/report")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/report/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = http.Get(srv.URL + "/report/img/current/google.com-1000x400.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, p := range []string{"/report/options.json", "/report/history.jsonl", "/report/logs/"} {
		resp, err = http.Get(srv.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}

func TestReportRejectsDotSegments(t *testing.T) {
	srv, runner, root := setup(t, &stubExecutor{})
	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, "options.json"))

	// sent as-is, the way a raw client would; net/http clients clean dot segments
	for _, target := range []string{
		"/report/img/../options.json",
		"/report/img/../history.jsonl",
		"/report/img/../logs/",
		"/report/img/current/../../options.json",
		"/report/../options.json",
		"/report/%2e%2e/options.json",
		"/report/img/..%2foptions.json",
	} {
		rec := httptest.NewRecorder()
		srv.Config.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "javascriptEnabled", target)
	}

	rec := httptest.NewRecorder()
	srv.Config.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/img/diff/../current/google.com-1000x400.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyHistoryWithPinnedKey(t *testing.T) {
	pub, priv, err := security.GenerateKeyPair()
	require.NoError(t, err)
	keys := t.TempDir()
	pubPath, privPath := filepath.Join(keys, "photobox.pub"), filepath.Join(keys, "photobox.priv")
	require.NoError(t, security.SaveKeyPair(pub, priv, pubPath, privPath))

	// entries recorded without signing_key cannot satisfy a pinned key
	srv, runner, _ := setup(t, &stubExecutor{}, "public_key: "+pubPath)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/history/verify")
	require.NoError(t, err)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["error"], "not signed")

	srv, runner, _ = setup(t, &stubExecutor{}, "public_key: "+pubPath, "signing_key: "+privPath)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	resp, err = http.Get(srv.URL + "/history/verify")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
