package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"calexport/internal/dokume"
	"calexport/internal/export"

	"gopkg.in/yaml.v3"
)

// UploadConfig points at an optional WebDAV collection.
type UploadConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config holds everything a run needs. Credentials are never compiled in; they
// come from the environment, flags or a config file.
type Config struct {
	BaseURL   string       `yaml:"base_url"`
	APIKey    string       `yaml:"api_key"`
	ProfileID string       `yaml:"profile_id"`
	Output    string       `yaml:"output"`
	Start     string       `yaml:"start"`  // YYYY-MM-DD HH:mm
	End       string       `yaml:"end"`    // YYYY-MM-DD HH:mm
	Format    string       `yaml:"format"` // csv | ics
	Timezone  string       `yaml:"timezone"`
	LogLevel  string       `yaml:"log_level"`
	Upload    UploadConfig `yaml:"upload"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		BaseURL:  dokume.DefaultBaseURL,
		Output:   "events_export.csv",
		Start:    "2026-01-01 00:00",
		End:      "2026-12-31 23:59",
		Format:   string(export.FormatCSV),
		Timezone: "UTC",
		LogLevel: "info",
	}
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// Merge returns c with every non-empty field of o applied on top.
func (c Config) Merge(o Config) Config {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&c.BaseURL, o.BaseURL)
	set(&c.APIKey, o.APIKey)
	set(&c.ProfileID, o.ProfileID)
	set(&c.Output, o.Output)
	set(&c.Start, o.Start)
	set(&c.End, o.End)
	set(&c.Format, o.Format)
	set(&c.Timezone, o.Timezone)
	set(&c.LogLevel, o.LogLevel)
	set(&c.Upload.URL, o.Upload.URL)
	set(&c.Upload.Username, o.Upload.Username)
	set(&c.Upload.Password, o.Upload.Password)
	return c
}

// Validate checks the values a run cannot do without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("DOKUME_API_KEY (or --api-key) is required"))
	}
	if strings.TrimSpace(c.ProfileID) == "" {
		errs = append(errs, errors.New("DOKUME_PROFILE_ID (or --profile-id) is required"))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output path must not be empty"))
	}
	if _, err := export.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ExportFormat returns the parsed output format.
func (c Config) ExportFormat() export.Format {
	f, err := export.ParseFormat(c.Format)
	if err != nil {
		return export.FormatCSV
	}
	return f
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	return loc, nil
}
