package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gameperf/internal/config"
)

func gameDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<canvas id="gameCanvas"></canvas>`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "game.js"), []byte("function draw() {}"), 0o644))
	return dir
}

func TestRouter(t *testing.T) {
	ts := httptest.NewServer(NewRouter(gameDir(t)))
	defer ts.Close()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/index.html", http.StatusOK, `<canvas id="gameCanvas"></canvas>`},
		{"/js/game.js", http.StatusOK, "function draw() {}"},
		{"/health", http.StatusOK, "OK"},
		{"/missing.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(body))
			}
		})
	}
}

func TestRouter_Headers(t *testing.T) {
	ts := httptest.NewServer(NewRouter(gameDir(t)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.html")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("Cache-Control"))
}

func TestServer_Lifecycle(t *testing.T) {
	s := New(config.ServerConfig{Port: 0, Root: gameDir(t)})
	assert.Equal(t, 0, s.Port())
	require.NoError(t, s.Shutdown(context.Background()))

	require.NoError(t, s.Start())
	assert.NotZero(t, s.Port())

	resp, err := http.Get(s.URL("index.html"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_PortInUse(t *testing.T) {
	first := New(config.ServerConfig{Port: 0, Root: t.TempDir()})
	require.NoError(t, first.Start())
	defer first.Shutdown(context.Background())

	second := New(config.ServerConfig{Port: first.Port(), Root: t.TempDir()})
	assert.ErrorContains(t, second.Start(), "listen on")
}

func TestServer_URL(t *testing.T) {
	s := New(config.ServerConfig{Port: 0, Root: t.TempDir()})
	require.NoError(t, s.Start())
	defer s.Shutdown(context.Background())

	assert.Regexp(t, `^http://localhost:\d+/games/index\.html$`, s.URL("games/index.html"))
}
