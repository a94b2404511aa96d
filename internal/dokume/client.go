package dokume

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"calexport/internal/models"

	"github.com/andybalholm/brotli"
)

const (
	// DefaultBaseURL is the public myevents endpoint.
	DefaultBaseURL = "https://api.dokume.net/public.php/calendar/myevents"

	headerAPIKey    = "X-DOKUME-API-KEY"
	headerProfileID = "X-DOKUME-PROFILEID"

	// referencesQuery resolves USERINTERFACE_ID into an object carrying its NAME.
	referencesQuery = "shared=true&references=%5B%7B%22OBJECT%22%3A%22USERINTERFACE%22%7D%5D"
)

var dateEncoder = strings.NewReplacer(" ", "%20", ":", "%3A")

// EncodeDate escapes a "YYYY-MM-DD HH:mm" timestamp for use as a path segment.
// Only spaces and colons are escaped.
func EncodeDate(s string) string {
	return dateEncoder.Replace(s)
}

// apiTransport adds the DokuMe credentials and common headers to each request.
type apiTransport struct {
	APIKey    string
	ProfileID string
	UserAgent string
	Transport http.RoundTripper
}

// RoundTrip adds required headers to each request.
func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(headerAPIKey, t.APIKey)
	req.Header.Set(headerProfileID, t.ProfileID)
	req.Header.Set("User-Agent", t.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	return t.Transport.RoundTrip(req)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	ProfileID string
	UserAgent string
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client fetches calendar events from the DokuMe public API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a new DokuMe API client.
func NewClient(logger *slog.Logger, opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.ProfileID == "" {
		return nil, fmt.Errorf("api key and profile id are required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "calexport/1.0"
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	transport := &apiTransport{
		APIKey:    opts.APIKey,
		ProfileID: opts.ProfileID,
		UserAgent: opts.UserAgent,
		Transport: opts.Transport,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		logger:     logger,
	}, nil
}

// EventsURL builds the request URL for an already encoded date range.
func (c *Client) EventsURL(start, end string) string {
	return fmt.Sprintf("%s/%s/%s?%s", c.baseURL, start, end, referencesQuery)
}

// FetchEvents loads all events between start and end. Both must already be
// encoded with EncodeDate.
func (c *Client) FetchEvents(ctx context.Context, start, end string) ([]models.Event, error) {
	url := c.EventsURL(start, end)
	c.logger.Debug("Fetching events", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     req.Method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	events, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Successfully fetched events from DokuMe", "count", len(events))
	return events, nil
}

// readBody reads the whole response, undoing any content encoding we asked for.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

// envelope is the common response wrapper of the public API.
type envelope struct {
	Success models.Value    `json:"SUCCESS"`
	Message json.RawMessage `json:"MESSAGE"`
}

func decodeEnvelope(body []byte) ([]models.Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w body=%s", err, snippet(body, 300))
	}

	if !env.Success.Truthy() {
		return nil, &FetchError{Message: failureMessage(env.Message)}
	}

	if len(env.Message) == 0 || string(env.Message) == "null" {
		return []models.Event{}, nil
	}

	var events []models.Event
	if err := json.Unmarshal(env.Message, &events); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return events, nil
}

func failureMessage(raw json.RawMessage) string {
	var msg models.Value
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &msg); err != nil {
			return string(raw)
		}
	}
	if !msg.IsSet() {
		return "Unknown"
	}
	return msg.String()
}
