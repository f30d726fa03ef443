package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"boardview/internal/core"
)

const (
	BackendTrello = "trello"
	BackendMemory = "memory"

	SinkSQLite = "sqlite"
	SinkXLSX   = "xlsx"
	SinkSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	RateLimitPerMinute int

	// Board source
	DataBackend   string
	BoardID       string
	APIKey        string
	APISecret     string
	Token         string
	TrelloBaseURL string
	FixturesDir   string
	FetchTimeout  time.Duration

	// Views
	UpcomingDays    int
	BoardLayoutFile string

	// Export
	ExportSink string
	ExportPath string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:   getEnv("DATA_BACKEND", BackendTrello),
		BoardID:       getEnv("BOARD_ID", ""),
		APIKey:        getEnv("API_KEY", ""),
		APISecret:     getEnv("API_SECRET", ""),
		Token:         getEnv("TOKEN", ""),
		TrelloBaseURL: getEnv("TRELLO_BASE_URL", ""),
		FixturesDir:   getEnv("FIXTURES_DIR", "./data/board"),
		FetchTimeout:  getEnvDuration("FETCH_TIMEOUT", 15*time.Second),

		UpcomingDays:    getEnvInt("UPCOMING_DAYS", 14),
		BoardLayoutFile: getEnv("BOARD_LAYOUT_FILE", ""),

		ExportSink: getEnv("EXPORT_SINK", SinkSQLite),
		ExportPath: getEnv("EXPORT_PATH", "./data/reports.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Board Export"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendTrello, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendTrello:
		if c.BoardID == "" {
			errors = append(errors, "BOARD_ID is required when using trello backend")
		}
		if c.APIKey == "" {
			errors = append(errors, "API_KEY is required when using trello backend")
		}
		if c.Token == "" {
			errors = append(errors, "TOKEN is required when using trello backend")
		}
	case BackendMemory:
		if c.FixturesDir == "" {
			errors = append(errors, "FIXTURES_DIR cannot be empty when using memory backend")
		} else if info, err := os.Stat(c.FixturesDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("fixtures directory does not exist: %s", c.FixturesDir))
		}
	}

	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 5 minutes", c.FetchTimeout))
	}

	if c.UpcomingDays < 1 || c.UpcomingDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid upcoming days %d: must be between 1 and 365", c.UpcomingDays))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.BoardLayoutFile != "" {
		if _, err := os.Stat(c.BoardLayoutFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("board layout file does not exist: %s", c.BoardLayoutFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateExport checks the settings the export command needs.
func (c *Config) ValidateExport() error {
	var errors []string

	validSinks := []string{SinkSQLite, SinkXLSX, SinkSheets}
	if !slices.Contains(validSinks, c.ExportSink) {
		errors = append(errors, fmt.Sprintf("invalid export sink '%s': must be one of %v", c.ExportSink, validSinks))
	}

	switch c.ExportSink {
	case SinkSQLite, SinkXLSX:
		if c.ExportPath == "" {
			errors = append(errors, fmt.Sprintf("EXPORT_PATH cannot be empty when using %s sink", c.ExportSink))
		} else if dir := filepath.Dir(c.ExportPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create export directory '%s': %v", dir, err))
				}
			}
		}
	case SinkSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets sink")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets sink")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets sink")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("export configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// UpcomingWindow is the look-ahead of the upcoming view.
func (c *Config) UpcomingWindow() time.Duration {
	return time.Duration(c.UpcomingDays) * 24 * time.Hour
}

// LoadLayout reads a YAML board layout. Fields left out of the file keep
// their defaults; an empty path returns the default layout.
func LoadLayout(path string) (core.Layout, error) {
	def := core.DefaultLayout()
	if path == "" {
		return def, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return core.Layout{}, fmt.Errorf("read layout %s: %w", path, err)
	}

	var l core.Layout
	if err := yaml.Unmarshal(b, &l); err != nil {
		return core.Layout{}, fmt.Errorf("parse layout %s: %w", path, err)
	}
	l = l.Merge(def)
	if err := l.Validate(); err != nil {
		return core.Layout{}, err
	}
	return l, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
