// Package config provides configuration utilities for the application.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// ClassifierConfig holds the settings for the remote classification service.
type ClassifierConfig struct {
	URL    string
	APIKey string
}

// LoadClassifierConfig loads classifier settings with this precedence:
// 1. Viper configuration (from config file or FACET_ env vars)
// 2. Direct environment variables (DIAMOND_CLASSIFIER_*)
func LoadClassifierConfig() ClassifierConfig {
	cfg := ClassifierConfig{
		URL:    viper.GetString("classifier.url"),
		APIKey: viper.GetString("classifier.api_key"),
	}

	if cfg.URL == "" {
		cfg.URL = os.Getenv("DIAMOND_CLASSIFIER_URL")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("DIAMOND_CLASSIFIER_API_KEY")
	}

	return cfg
}

// DatabasePath returns the configured SQLite path, expanded, with a default
// under the user's config directory.
func DatabasePath() string {
	if v := viper.GetString("database.path"); v != "" {
		return ExpandPath(v)
	}
	return ExpandPath("~/.config/facet/facet.db")
}

// Operator resolves the operator identity recorded with each verdict. Falls
// back to the OS user when nothing is configured.
func Operator() string {
	if v := viper.GetString("operator"); v != "" {
		return v
	}
	if v := os.Getenv("FACET_OPERATOR"); v != "" {
		return v
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}
