package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if !cfg.Speech.Language.Supported() {
		return nil, fmt.Errorf("speech.language %q is not supported", cfg.Speech.Language)
	}
	if cfg.Speech.EndSilenceTimeoutMS < 0 {
		return nil, fmt.Errorf("speech.end_silence_timeout_ms must be >= 0")
	}
	if cfg.Speech.IdleTimeoutMS < 0 {
		return nil, fmt.Errorf("speech.idle_timeout_ms must be >= 0")
	}
	if cfg.Speech.StartTimeoutMS <= 0 {
		return nil, fmt.Errorf("speech.start_timeout_ms must be > 0")
	}
	if cfg.Speech.StopTimeoutMS <= 0 {
		return nil, fmt.Errorf("speech.stop_timeout_ms must be > 0")
	}

	rawURL := strings.TrimSpace(cfg.Backend.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("backend.url must not be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("backend.url must be an http(s) URL, got %q", rawURL)
	}
	if cfg.Backend.TimeoutMS <= 0 {
		return nil, fmt.Errorf("backend.timeout_ms must be > 0")
	}
	if cfg.Backend.Retries < 0 {
		return nil, fmt.Errorf("backend.retries must be >= 0")
	}
	if parsed.Scheme == "http" && !isLoopback(parsed.Hostname()) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("backend.url %q is plain http to a remote host", rawURL)})
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.TimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.timeout_ms must be >= 0")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

// ParseLevel maps log.level onto a slog level. Empty means info.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
}

// BuildSpeechPhrases merges enabled vocab sets into a deterministic phrase list
// for the recognizer's phrase-list grammar.
func BuildSpeechPhrases(cfg Config) ([]string, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]string)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			key := strings.ToLower(phrase)
			if from, exists := selected[key]; exists {
				if from != name {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q", phrase, from, name)})
				}
				continue
			}
			selected[key] = name
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]string, 0, len(selected))
	for phrase := range selected {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)

	return phrases, warnings, nil
}

func isLoopback(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
