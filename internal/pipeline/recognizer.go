// Package pipeline couples microphone capture with a streaming speech
// recognizer so the session controller sees one recognizer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/basket/internal/azure"
	"github.com/rbright/basket/internal/locale"
	"github.com/rbright/basket/internal/session"
)

const (
	selectTimeout = 3 * time.Second
	drainTimeout  = 2 * time.Second
)

// Speech is a recognizer that accepts pushed PCM audio.
type Speech interface {
	session.Recognizer
	Write([]byte) error
}

// Engine implements session.Engine over a speech engine and an audio source.
type Engine struct {
	available func() error
	open      func(session.RecognizerConfig) (Speech, error)
	source    Source
	logger    *slog.Logger
}

// NewEngine wires Azure recognition to source.
func NewEngine(speech *azure.Engine, source Source, logger *slog.Logger) *Engine {
	return newEngine(speech.Available, func(rc session.RecognizerConfig) (Speech, error) {
		rec, err := speech.Open(rc)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}, source, logger)
}

func newEngine(available func() error, open func(session.RecognizerConfig) (Speech, error), source Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{available: available, open: open, source: source, logger: logger}
}

// Available reports whether the speech engine is usable.
func (e *Engine) Available() error {
	return e.available()
}

// NewRecognizer implements session.Engine.
func (e *Engine) NewRecognizer(rc session.RecognizerConfig) (session.Recognizer, error) {
	speech, err := e.open(rc)
	if err != nil {
		return nil, err
	}
	return &Recognizer{speech: speech, source: e.source, logger: e.logger}, nil
}

// Recognizer captures audio while its speech recognizer runs.
type Recognizer struct {
	speech Speech
	source Source
	logger *slog.Logger

	mu       sync.Mutex
	stream   Stream
	cancel   context.CancelFunc
	sendDone chan struct{}
}

func (r *Recognizer) SetLanguage(tag locale.Tag) { r.speech.SetLanguage(tag) }
func (r *Recognizer) Listen(l session.Listener)  { r.speech.Listen(l) }

// Start selects the input device, starts recognition and then capture.
func (r *Recognizer) Start() error {
	// A capture left over from a service-initiated end is discarded.
	r.stopCapture()

	selectCtx, cancelSelect := context.WithTimeout(context.Background(), selectTimeout)
	selection, err := r.source.Select(selectCtx)
	cancelSelect()
	if err != nil {
		return fmt.Errorf("select audio input: %w", err)
	}
	if selection.Warning != "" {
		r.logger.Warn(selection.Warning)
	}

	if err := r.speech.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := r.source.Open(ctx, selection.Device)
	if err != nil {
		cancel()
		_ = r.speech.Stop()
		return fmt.Errorf("start audio capture: %w", err)
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.stream = stream
	r.cancel = cancel
	r.sendDone = done
	r.mu.Unlock()

	r.logger.Info("capture started", "device", stream.Device().String())
	go r.sendLoop(stream, done)
	return nil
}

// Stop ends capture, lets queued audio drain into the recognizer and then
// stops recognition.
func (r *Recognizer) Stop() error {
	r.stopCapture()
	return r.speech.Stop()
}

// Close stops capture and releases the speech recognizer.
func (r *Recognizer) Close() error {
	r.stopCapture()
	return r.speech.Close()
}

func (r *Recognizer) stopCapture() {
	r.mu.Lock()
	stream, cancel, done := r.stream, r.cancel, r.sendDone
	r.stream, r.cancel, r.sendDone = nil, nil, nil
	r.mu.Unlock()

	if stream == nil {
		return
	}
	_ = stream.Stop()
	cancel()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		r.logger.Warn("audio drain timed out", "timeout", drainTimeout.String())
	}
}

// sendLoop forwards capture chunks until the stream closes or the
// recognizer stops accepting audio.
func (r *Recognizer) sendLoop(stream Stream, done chan struct{}) {
	defer close(done)

	var sent int64
	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		if err := r.speech.Write(chunk); err != nil {
			if !errors.Is(err, azure.ErrNotRunning) {
				r.logger.Error("send audio failed", "error", err.Error())
			}
			_ = stream.Stop()
			for range stream.Chunks() {
			}
			break
		}
		sent += int64(len(chunk))
	}
	r.logger.Debug("capture finished", "bytes_sent", sent)
}
