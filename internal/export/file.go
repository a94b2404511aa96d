package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"calexport/internal/models"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatICS Format = "ics"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatICS:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown format %q (want csv or ics)", s)
}

// WriteFile writes events to path in the given format and returns the number of
// records written. Nothing is created when encoding fails.
func WriteFile(path string, format Format, events []models.Event, opts ICSOptions) (n int, err error) {
	var buf bytes.Buffer
	switch format {
	case FormatICS:
		n, err = WriteICS(&buf, events, opts)
	case FormatCSV:
		rows := ToRows(events)
		n, err = len(rows), WriteCSV(&buf, rows)
	default:
		return 0, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	if _, err := buf.WriteTo(f); err != nil {
		return 0, fmt.Errorf("failed to write output file: %w", err)
	}
	return n, nil
}
