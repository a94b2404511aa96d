package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"calexport/internal/config"
	"calexport/internal/dokume"
	"calexport/internal/export"
	"calexport/internal/exporter"
	"calexport/internal/publish"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		setupLogger("info", stderr).Error("Export failed", "error", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	defaults := config.Default()

	return &cli.App{
		Name:      "calexport",
		Usage:     "Export DokuMe calendar events to a CSV file.",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: defaults.Output, Usage: "output file path"},
			&cli.StringFlag{Name: "start", Value: defaults.Start, Usage: `range start ("YYYY-MM-DD HH:mm")`},
			&cli.StringFlag{Name: "end", Value: defaults.End, Usage: `range end ("YYYY-MM-DD HH:mm")`},
			&cli.StringFlag{Name: "format", Value: defaults.Format, Usage: "output format: csv or ics"},
			&cli.StringFlag{Name: "api-key", EnvVars: []string{"DOKUME_API_KEY"}, Usage: "DokuMe API key"},
			&cli.StringFlag{Name: "profile-id", EnvVars: []string{"DOKUME_PROFILE_ID"}, Usage: "DokuMe profile ID"},
			&cli.StringFlag{Name: "base-url", EnvVars: []string{"DOKUME_BASE_URL"}, Value: defaults.BaseURL, Usage: "myevents endpoint"},
			&cli.StringFlag{Name: "timezone", EnvVars: []string{"PRIMARY_TIMEZONE"}, Value: defaults.Timezone, Usage: "timezone for ics timestamps"},
			&cli.StringFlag{Name: "upload-url", EnvVars: []string{"WEBDAV_URL"}, Usage: "upload the export to this WebDAV collection"},
			&cli.StringFlag{Name: "upload-user", EnvVars: []string{"WEBDAV_USERNAME"}, Usage: "WebDAV username"},
			&cli.StringFlag{Name: "upload-password", EnvVars: []string{"WEBDAV_PASSWORD"}, Usage: "WebDAV password"},
			&cli.StringFlag{Name: "config", EnvVars: []string{"CALEXPORT_CONFIG"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Value: defaults.LogLevel, Usage: "debug, info, warn or error"},
		},
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, c.App.ErrWriter)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	client, err := dokume.NewClient(logger, dokume.Options{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		ProfileID: cfg.ProfileID,
	})
	if err != nil {
		return fmt.Errorf("failed to create dokume client: %w", err)
	}

	opts := exporter.Options{
		Start:  cfg.Start,
		End:    cfg.End,
		Output: cfg.Output,
		Format: cfg.ExportFormat(),
		ICS:    export.ICSOptions{Location: loc},
	}
	if cfg.Upload.URL != "" {
		uploader, err := publish.NewWebDAVUploader(logger, cfg.Upload.URL, cfg.Upload.Username, cfg.Upload.Password)
		if err != nil {
			return fmt.Errorf("failed to create uploader: %w", err)
		}
		opts.Uploader = uploader
	}

	res, err := exporter.New(logger, client, opts).Run(c.Context)
	if errors.Is(err, exporter.ErrNoEvents) {
		logger.Debug("Empty result", "start", cfg.Start, "end", cfg.End)
		fmt.Fprintln(c.App.ErrWriter, "No events found.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%d events exported to %s\n", res.Written, res.Path)
	return nil
}

// loadConfig layers defaults, the optional config file and explicitly set
// flags or environment variables, in that order.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		fileCfg, err := config.LoadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}

	flag := func(name string) string {
		if c.IsSet(name) {
			return c.String(name)
		}
		return ""
	}
	return cfg.Merge(config.Config{
		BaseURL:   flag("base-url"),
		APIKey:    flag("api-key"),
		ProfileID: flag("profile-id"),
		Output:    flag("output"),
		Start:     flag("start"),
		End:       flag("end"),
		Format:    flag("format"),
		Timezone:  flag("timezone"),
		LogLevel:  flag("log-level"),
		Upload: config.UploadConfig{
			URL:      flag("upload-url"),
			Username: flag("upload-user"),
			Password: flag("upload-password"),
		},
	}), nil
}

func setupLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
