package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/adrg/xdg"
)

const (
	defaultAPIBaseURL    = "https://api.alquran.cloud/v1"
	defaultTafsirBaseURL = "https://api.quran.com/api/v4"
)

// Config holds runtime settings for the CLI app. Reading preferences live
// in the database and are managed by the prefs package, not here.
type Config struct {
	APIBaseURL    string
	TafsirBaseURL string
	DBPath        string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		APIBaseURL:    os.Getenv("QURAN_API_BASE_URL"),
		TafsirBaseURL: os.Getenv("QURAN_TAFSIR_BASE_URL"),
		DBPath:        os.Getenv("QURAN_DB_PATH"),
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.TafsirBaseURL == "" {
		cfg.TafsirBaseURL = defaultTafsirBaseURL
	}
	if cfg.DBPath == "" {
		path, err := xdg.DataFile("quran-cli/quran.db")
		if err != nil {
			return Config{}, fmt.Errorf("resolve default database path: %w", err)
		}
		cfg.DBPath = path
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("APIBaseURL is required")
	}
	if c.TafsirBaseURL == "" {
		return errors.New("TafsirBaseURL is required")
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.APIBaseURL[len(c.APIBaseURL)-1] == '/' {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	if c.TafsirBaseURL[len(c.TafsirBaseURL)-1] == '/' {
		return fmt.Errorf("TafsirBaseURL must not end with '/': %s", c.TafsirBaseURL)
	}
	return nil
}
