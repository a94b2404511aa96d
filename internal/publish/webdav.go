package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/emersion/go-webdav"
)

// basicAuthTransport signs upload requests with the WebDAV credentials.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip sets credentials, when configured, and the calexport User-Agent on
// a copy of req.
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "calexport/1.0")
	return t.Transport.RoundTrip(req)
}

// WebDAVUploader copies export files into a WebDAV collection.
type WebDAVUploader struct {
	client   *webdav.Client
	endpoint string
	logger   *slog.Logger
}

// NewWebDAVUploader creates an uploader for the collection at endpoint.
func NewWebDAVUploader(logger *slog.Logger, endpoint, username, password string) (*WebDAVUploader, error) {
	transport := &basicAuthTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	client, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	return &WebDAVUploader{client: client, endpoint: endpoint, logger: logger}, nil
}

// Upload PUTs the file at localPath as remoteName, relative to the endpoint.
func (u *WebDAVUploader) Upload(ctx context.Context, localPath, remoteName string) error {
	u.logger.Debug("Uploading export", "file", localPath, "remote", remoteName)

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	writer, err := u.client.Create(ctx, remoteName)
	if err != nil {
		return fmt.Errorf("failed to create file on WebDAV server: %w", err)
	}

	if _, err := io.Copy(writer, f); err != nil {
		writer.Close()
		return fmt.Errorf("failed to send file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to store file on WebDAV server: %w", err)
	}

	u.logger.Info("Successfully uploaded export", "endpoint", u.endpoint, "remote", remoteName)
	return nil
}
