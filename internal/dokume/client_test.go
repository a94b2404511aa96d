package dokume

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"calexport/internal/models"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(testLogger(), Options{BaseURL: baseURL, APIKey: "secret", ProfileID: "46093"})
	require.NoError(t, err)
	return c
}

func TestEncodeDate(t *testing.T) {
	assert.Equal(t, "2026-01-01%2000%3A00", EncodeDate("2026-01-01 00:00"))
	assert.Equal(t, "2026-12-31", EncodeDate("2026-12-31"))
	assert.Equal(t, "a/b%20c", EncodeDate("a/b c"))
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(testLogger(), Options{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewClient(testLogger(), Options{ProfileID: "p"})
	assert.Error(t, err)
}

func TestFetchEvents_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = io.WriteString(w, `{"SUCCESS": true, "MESSAGE": []}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/calendar/myevents/")
	events, err := c.FetchEvents(context.Background(), EncodeDate("2026-01-01 00:00"), EncodeDate("2026-12-31 23:59"))
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t,
		"/calendar/myevents/2026-01-01%2000%3A00/2026-12-31%2023%3A59?shared=true&references=%5B%7B%22OBJECT%22%3A%22USERINTERFACE%22%7D%5D",
		got.RequestURI)
	assert.Equal(t, "true", got.URL.Query().Get("shared"))
	assert.Equal(t, `[{"OBJECT":"USERINTERFACE"}]`, got.URL.Query().Get("references"))
	assert.Equal(t, "secret", got.Header.Get("X-DOKUME-API-KEY"))
	assert.Equal(t, "46093", got.Header.Get("X-DOKUME-PROFILEID"))
	assert.Equal(t, "calexport/1.0", got.Header.Get("User-Agent"))
}

func TestFetchEvents_DecodesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"SUCCESS": 1,
			"MESSAGE": [
				{"ID": 1, "TITLE": "Meeting", "STARTDATE": "2026-01-01 10:00:00", "USERINTERFACE_ID": {"NAME": "Kurse"}},
				{"ID": "2", "TITLE": "Seminar", "NOTE": "<p>Hallo</p>", "USERINTERFACE_ID": 3}
			]
		}`)
	}))
	defer srv.Close()

	events, err := newTestClient(t, srv.URL).FetchEvents(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, models.Number("1"), events[0].ID)
	assert.Equal(t, "Kurse", events[0].UserInterface.Name())
	assert.Equal(t, models.String("2"), events[1].ID)
	assert.Equal(t, "3", events[1].UserInterface.Name())
	assert.Equal(t, "<p>Hallo</p>", events[1].Note.String())
}

func TestFetchEvents_Failure(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"explicit false", `{"SUCCESS": false, "MESSAGE": "Invalid key"}`, "Invalid key"},
		{"missing flag", `{"MESSAGE": "Profile not found"}`, "Profile not found"},
		{"missing message", `{"SUCCESS": false}`, "Unknown"},
		{"zero flag", `{"SUCCESS": 0, "MESSAGE": "nope"}`, "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			events, err := newTestClient(t, srv.URL).FetchEvents(context.Background(), "a", "b")
			assert.Nil(t, events)

			var fe *FetchError
			require.True(t, errors.As(err, &fe), "want FetchError, got %v", err)
			assert.Equal(t, tt.wantMsg, fe.Message)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFetchEvents_MissingPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"SUCCESS": true}`)
	}))
	defer srv.Close()

	events, err := newTestClient(t, srv.URL).FetchEvents(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFetchEvents_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "forbidden")
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchEvents(context.Background(), "a", "b")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Contains(t, err.Error(), "status=403 body=forbidden")
}

func TestFetchEvents_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchEvents(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")

	var fe *FetchError
	assert.False(t, errors.As(err, &fe))
}

func TestFetchEvents_CompressedBodies(t *testing.T) {
	payload := []byte(`{"SUCCESS": true, "MESSAGE": [{"ID": 9, "TITLE": "Packed"}]}`)

	var brBody bytes.Buffer
	bw := brotli.NewWriter(&brBody)
	_, err := bw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	var gzBody bytes.Buffer
	gw := gzip.NewWriter(&gzBody)
	_, err = gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	for encoding, body := range map[string][]byte{"br": brBody.Bytes(), "gzip": gzBody.Bytes()} {
		t.Run(encoding, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "br, gzip", r.Header.Get("Accept-Encoding"))
				w.Header().Set("Content-Encoding", encoding)
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			events, err := newTestClient(t, srv.URL).FetchEvents(context.Background(), "a", "b")
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "Packed", events[0].Title.String())
		})
	}
}

func TestStatusError_Snippet(t *testing.T) {
	err := &StatusError{Method: "GET", URL: "https://example.com", StatusCode: 500, Body: bytes.Repeat([]byte("x"), 400)}
	assert.Contains(t, err.Error(), "status=500")
	assert.Contains(t, err.Error(), "...")
}
