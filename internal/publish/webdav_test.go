package publish

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedPut struct {
	method, path, user, pass, agent string
	body                            []byte
}

func TestUpload(t *testing.T) {
	var (
		mu  sync.Mutex
		got recordedPut
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		user, pass, _ := r.BasicAuth()
		mu.Lock()
		got = recordedPut{method: r.Method, path: r.URL.Path, user: user, pass: pass, agent: r.UserAgent(), body: body}
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(local, []byte("ID,TITLE\r\n1,Meeting\r\n"), 0o644))

	u, err := NewWebDAVUploader(testLogger(), srv.URL+"/dav/exports/", "alice", "s3cret")
	require.NoError(t, err)
	require.NoError(t, u.Upload(context.Background(), local, "events.csv"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/dav/exports/events.csv", got.path)
	assert.Equal(t, "alice", got.user)
	assert.Equal(t, "s3cret", got.pass)
	assert.Equal(t, "calexport/1.0", got.agent)
	assert.Equal(t, "ID,TITLE\r\n1,Meeting\r\n", string(got.body))
}

func TestUpload_ServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))

	u, err := NewWebDAVUploader(testLogger(), srv.URL+"/", "", "")
	require.NoError(t, err)
	assert.Error(t, u.Upload(context.Background(), local, "events.csv"))
}

func TestUpload_MissingFile(t *testing.T) {
	u, err := NewWebDAVUploader(testLogger(), "http://127.0.0.1:1/", "", "")
	require.NoError(t, err)
	assert.Error(t, u.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "nope.csv"))
}
