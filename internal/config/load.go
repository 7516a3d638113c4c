package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read on top of the config file.
const (
	EnvSpeechKey    = "AZURE_SPEECH_KEY"
	EnvSpeechRegion = "AZURE_SPEECH_REGION"
	EnvBackendURL   = "BASKET_BACKEND_URL"
	EnvUserID       = "BASKET_USER_ID"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
	// EnvFile is the .env file that was read, if any.
	EnvFile string
}

// Load resolves, reads, parses, and validates the runtime configuration, then
// applies environment overrides. A .env file next to the config file supplies
// values the process environment does not set.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath}
	cfg := Default()

	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	default:
		parsed, warnings, err := Parse(string(content), cfg)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
		}
		cfg = parsed
		loaded.Warnings = append(loaded.Warnings, warnings...)
		loaded.Exists = true
	}

	dotenv, envFile, err := readDotenv(filepath.Join(filepath.Dir(resolvedPath), ".env"))
	if err != nil {
		return Loaded{}, err
	}
	loaded.EnvFile = envFile

	lookup := func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Loaded{}, err
	}

	loaded.Config = cfg
	return loaded, nil
}

func readDotenv(path string) (map[string]string, string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("read env file %q: %w", path, err)
	}
	return values, path, nil
}

// applyEnv overlays secrets and deployment overrides onto cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvSpeechKey); ok {
		cfg.Speech.Key = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvSpeechRegion); ok && strings.TrimSpace(value) != "" {
		cfg.Speech.Region = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvUserID); ok && strings.TrimSpace(value) != "" {
		cfg.Backend.UserID = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvBackendURL); ok && strings.TrimSpace(value) != "" {
		cfg.Backend.URL = strings.TrimSpace(value)
		if _, err := Validate(*cfg); err != nil {
			return fmt.Errorf("%s: %w", EnvBackendURL, err)
		}
	}
	return nil
}
