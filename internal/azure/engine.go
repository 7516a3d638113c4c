// Package azure binds Azure Speech continuous recognition to the session
// controller's recognizer contract.
package azure

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/basket/internal/locale"
	"github.com/rbright/basket/internal/session"
)

const (
	// SampleRate is the PCM rate pushed to the service (16-bit mono).
	SampleRate = 16000

	defaultStartTimeout = 5 * time.Second
	defaultStopTimeout  = 10 * time.Second
)

// Config carries subscription credentials and recognition tuning.
type Config struct {
	Key    string
	Region string

	// EndSilenceTimeout sets the service-side end-of-utterance silence.
	EndSilenceTimeout time.Duration
	// IdleTimeout ends recognition after this long without speech activity.
	// Zero disables it.
	IdleTimeout  time.Duration
	StartTimeout time.Duration
	StopTimeout  time.Duration
	// Phrases are boosted through a phrase list grammar.
	Phrases []string
}

// Engine creates Azure-backed recognizers.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine constructs an engine. Missing credentials are reported by
// Available, not here.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = defaultStartTimeout
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = defaultStopTimeout
	}
	cfg.Key = strings.TrimSpace(cfg.Key)
	cfg.Region = strings.TrimSpace(cfg.Region)
	return &Engine{cfg: cfg, logger: logger}
}

// Available reports whether credentials are configured.
func (e *Engine) Available() error {
	var missing []string
	if e.cfg.Key == "" {
		missing = append(missing, "AZURE_SPEECH_KEY")
	}
	if e.cfg.Region == "" {
		missing = append(missing, "AZURE_SPEECH_REGION")
	}
	if len(missing) > 0 {
		return errors.New(strings.Join(missing, " and ") + " not set")
	}
	return nil
}

// Open returns a concrete recognizer so callers can push audio into it.
func (e *Engine) Open(rc session.RecognizerConfig) (*Recognizer, error) {
	if err := e.Available(); err != nil {
		return nil, err
	}
	language := rc.Language
	if !language.Supported() {
		language = locale.Default
	}
	return newRecognizer(e.cfg, rc, language, e.logger), nil
}

// NewRecognizer implements session.Engine.
func (e *Engine) NewRecognizer(rc session.RecognizerConfig) (session.Recognizer, error) {
	rec, err := e.Open(rc)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
