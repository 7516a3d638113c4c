package session

import (
	"errors"

	"github.com/rbright/basket/internal/locale"
	"github.com/rbright/basket/internal/transcript"
)

// ErrUnsupported indicates no speech capability is available on this host.
var ErrUnsupported = errors.New("speech recognition unsupported")

// Segment is one interim or final chunk of recognized text.
type Segment = transcript.Segment

// Engine is the speech capability the controller binds recognizers from.
type Engine interface {
	// Available returns nil when the capability can be used. It is probed
	// once per controller.
	Available() error
	NewRecognizer(RecognizerConfig) (Recognizer, error)
}

// RecognizerConfig is applied to every recognizer the controller binds.
type RecognizerConfig struct {
	Language        locale.Tag
	InterimResults  bool
	Continuous      bool
	MaxAlternatives int
}

// Recognizer is one external recognition session.
type Recognizer interface {
	SetLanguage(locale.Tag)
	// Start begins recognition. A returned error means it never started.
	Start() error
	Stop() error
	// Listen attaches event wiring; nil detaches it.
	Listen(Listener)
	Close() error
}

// Listener receives recognizer events, possibly from engine goroutines.
type Listener interface {
	OnResults([]Segment)
	OnError(reason string)
	OnEnd()
}

// ResultFunc receives recognized text. final is false for interim text.
type ResultFunc func(text string, final bool)

// ErrorFunc receives an engine or lifecycle failure reason.
type ErrorFunc func(reason string)
