// Package config resolves, parses, validates, and defaults basket configuration.
package config

import "github.com/rbright/basket/internal/locale"

// Config is the fully materialized runtime configuration used by basket.
type Config struct {
	Speech    SpeechConfig
	Audio     AudioConfig
	Backend   BackendConfig
	Session   SessionConfig
	Indicator IndicatorConfig
	Vocab     VocabConfig
	Log       LogConfig
}

// SpeechConfig controls the Azure continuous recognizer.
// Key and Region are secrets and only come from the environment.
type SpeechConfig struct {
	Key                 string
	Region              string
	Language            locale.Tag
	EndSilenceTimeoutMS int
	IdleTimeoutMS       int
	StartTimeoutMS      int
	StopTimeoutMS       int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// BackendConfig locates the shopping-list service.
type BackendConfig struct {
	URL       string
	UserID    string
	TimeoutMS int
	Retries   int
}

// SessionConfig controls the listen loop.
type SessionConfig struct {
	AutoRestart bool
}

// IndicatorConfig controls desktop notifications.
type IndicatorConfig struct {
	Enable         bool
	DesktopAppName string
	TimeoutMS      int
	ErrorTimeoutMS int
}

// VocabConfig controls enabled phrase-list sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named group of recognition hints.
type VocabSet struct {
	Name    string
	Phrases []string
}

// LogConfig controls the runtime JSONL log.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
