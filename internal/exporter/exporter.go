package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"calexport/internal/dokume"
	"calexport/internal/export"
	"calexport/internal/models"
)

// ErrNoEvents is returned when the range holds no events after deduplication.
// No file is written in that case.
var ErrNoEvents = errors.New("no events found")

// EventSource loads events for an encoded date range.
type EventSource interface {
	FetchEvents(ctx context.Context, start, end string) ([]models.Event, error)
}

// Uploader publishes a written export file.
type Uploader interface {
	Upload(ctx context.Context, localPath, remoteName string) error
}

// Options configures a single export run.
type Options struct {
	// Start and End are "YYYY-MM-DD HH:mm" timestamps, not yet encoded.
	Start  string
	End    string
	Output string
	Format export.Format
	ICS    export.ICSOptions
	// Uploader is optional.
	Uploader Uploader
}

// Result summarises a run.
type Result struct {
	Fetched  int
	Unique   int
	Written  int
	Path     string
	Uploaded bool
}

// Exporter runs the fetch, dedup, flatten and write pipeline once.
type Exporter struct {
	logger *slog.Logger
	source EventSource
	opts   Options
}

// New creates a new Exporter.
func New(logger *slog.Logger, source EventSource, opts Options) *Exporter {
	if opts.Format == "" {
		opts.Format = export.FormatCSV
	}
	return &Exporter{logger: logger, source: source, opts: opts}
}

// Run performs one export.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	e.logger.Info("Starting export.", "start", e.opts.Start, "end", e.opts.End, "format", e.opts.Format)

	events, err := e.source.FetchEvents(ctx, dokume.EncodeDate(e.opts.Start), dokume.EncodeDate(e.opts.End))
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch events: %w", err)
	}

	unique := Deduplicate(events)
	res := Result{Fetched: len(events), Unique: len(unique)}
	if dropped := len(events) - len(unique); dropped > 0 {
		e.logger.Debug("Dropped duplicate events.", "count", dropped)
	}

	if len(unique) == 0 {
		return res, ErrNoEvents
	}

	written, err := export.WriteFile(e.opts.Output, e.opts.Format, unique, e.opts.ICS)
	if err != nil {
		return res, fmt.Errorf("failed to write %s: %w", e.opts.Output, err)
	}
	res.Written = written
	res.Path = e.opts.Output
	if skipped := len(unique) - written; skipped > 0 {
		e.logger.Warn("Skipped events without a usable start date.", "count", skipped)
	}

	if e.opts.Uploader != nil {
		if err := e.opts.Uploader.Upload(ctx, e.opts.Output, filepath.Base(e.opts.Output)); err != nil {
			return res, fmt.Errorf("failed to upload export: %w", err)
		}
		res.Uploaded = true
	}

	e.logger.Info("Export finished.", "fetched", res.Fetched, "unique", res.Unique, "written", res.Written, "path", res.Path)
	return res, nil
}
