package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/andrescamacho/harbor-go/internal/adapters/logging"
	"github.com/andrescamacho/harbor-go/internal/infrastructure/config"
	"github.com/andrescamacho/harbor-go/internal/infrastructure/database"
)

// loadConfig loads the configuration named by the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithPreset(configPath, presetName)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openDatabase connects and migrates the run recorder tables
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// newLogger builds the agent logger described by the logging section.
// The returned close function releases the log file, if any.
func newLogger(cfg config.LoggingConfig) (*logging.SlogAgentLogger, func() error, error) {
	var (
		out     io.Writer
		closeFn = func() error { return nil }
	)

	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "file":
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
		closeFn = file.Close
	default:
		out = os.Stdout
	}

	if cfg.Format == "json" {
		return logging.NewJSONLogger(out, cfg.Level), closeFn, nil
	}
	return logging.NewTextLogger(out, cfg.Level), closeFn, nil
}

// maskPassword hides the password of a postgres URL for display
func maskPassword(url string) string {
	schemeEnd := 0
	if i := strings.Index(url, "://"); i >= 0 {
		schemeEnd = i + 3
	}
	at := strings.LastIndex(url, "@")
	if at < schemeEnd {
		return url
	}
	user, _, hasPassword := strings.Cut(url[schemeEnd:at], ":")
	if !hasPassword {
		return url
	}
	return url[:schemeEnd] + user + ":****" + url[at:]
}

// prettyPrint formats JSON for display
func prettyPrint(v interface{}) string {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(bytes)
}
