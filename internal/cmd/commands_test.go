package cmd

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnvironment points every store at throwaway instances
func setupEnvironment(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	dir := t.TempDir()
	chdir(t, dir)

	mr := miniredis.RunT(t)
	t.Setenv("PWA_REDIS_ADDRESS", mr.Addr())
	t.Setenv("PWA_DATABASE_DSN", filepath.Join(dir, "pwascout.db"))
	t.Setenv("PWA_LOG_LEVEL", "error")
	t.Setenv("PWA_WORKER_TIMEOUT", "2s")
	return mr
}

func newSiteServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := url.Parse(server.URL)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/":
			fmt.Fprintf(w, `<html><head><link rel="manifest" href="/app.webmanifest"></head><body>
				<a href="/about">About</a>
				<a href="http://localhost:%s/next">Next</a>
				<a href="http://127.0.0.1:1/">Closed port</a>
			</body></html>`, u.Port())
		case "/next":
			fmt.Fprint(w, `<html><body><p>No links here</p></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return server, u.Host
}

func TestSeedCommand(t *testing.T) {
	mr := setupEnvironment(t)
	server, netloc := newSiteServer(t)

	out, err := execute(t, "seed", server.URL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "2 URLs pending")

	queued, err := mr.List("urls")
	require.NoError(t, err)
	assert.Len(t, queued, 2)

	out, err = execute(t, "pwas")
	require.NoError(t, err)
	assert.Contains(t, out, netloc)

	out, err = execute(t, "show", netloc)
	require.NoError(t, err)
	assert.Contains(t, out, "netloc: "+netloc)
	assert.Contains(t, out, "pwa: true")
	assert.Contains(t, out, "scheme: http")
	assert.Contains(t, out, "http://127.0.0.1:1/")

	out, err = execute(t, "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "2 URLs pending")
	assert.Contains(t, out, "/next")
}

func TestDrainCommand(t *testing.T) {
	mr := setupEnvironment(t)
	server, netloc := newSiteServer(t)

	_, err := execute(t, "seed", server.URL+"/")
	require.NoError(t, err)

	out, err := execute(t, "drain")
	require.NoError(t, err)
	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "POPPED")
	assert.False(t, mr.Exists("urls"), "frontier drained")

	_, port, err := net.SplitHostPort(netloc)
	require.NoError(t, err)

	out, err = execute(t, "show", "localhost:"+port)
	require.NoError(t, err)
	assert.Contains(t, out, "path: /next")
	assert.Contains(t, out, "pwa: false")

	_, err = execute(t, "show", "127.0.0.1:1")
	assert.Error(t, err, "unreachable host is not recorded")
}

func TestShowMissingRecord(t *testing.T) {
	setupEnvironment(t)

	_, err := execute(t, "show", "nowhere.test")
	assert.ErrorContains(t, err, "no record for nowhere.test")
}

func TestSeedRequiresURL(t *testing.T) {
	setupEnvironment(t)

	_, err := execute(t, "seed")
	assert.Error(t, err)
}

func TestCommandRejectsInvalidConfig(t *testing.T) {
	setupEnvironment(t)
	t.Setenv("PWA_DATABASE_DRIVER", "oracle")

	_, err := execute(t, "pwas")
	assert.ErrorContains(t, err, "invalid configuration")
}
