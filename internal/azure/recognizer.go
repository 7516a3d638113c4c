package azure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/rbright/basket/internal/locale"
	"github.com/rbright/basket/internal/session"
)

// ErrNotRunning is returned by Write when no recognition is active.
var ErrNotRunning = errors.New("azure recognizer is not running")

// native groups the SDK handles of one continuous recognition run.
type native struct {
	config     *speech.SpeechConfig
	stream     *audio.PushAudioInputStream
	audioCfg   *audio.AudioConfig
	recognizer *speech.SpeechRecognizer
	phrases    *speech.PhraseListGrammar
}

func (n *native) close() {
	if n.phrases != nil {
		n.phrases.Close()
	}
	if n.recognizer != nil {
		n.recognizer.Close()
	}
	if n.audioCfg != nil {
		n.audioCfg.Close()
	}
	if n.stream != nil {
		n.stream.Close()
	}
	if n.config != nil {
		n.config.Close()
	}
}

// Recognizer is one continuous recognizer fed through a push audio stream.
// Native handles are rebuilt on every Start.
type Recognizer struct {
	cfg    Config
	logger *slog.Logger
	relay  *relay

	mu       sync.Mutex
	language locale.Tag
	native   *native
	running  bool
	run      uint64
	idle     *time.Timer

	// stoppedRun is the last run the service ended on its own.
	stoppedRun uint64
}

func newRecognizer(cfg Config, rc session.RecognizerConfig, language locale.Tag, logger *slog.Logger) *Recognizer {
	r := &Recognizer{
		cfg:      cfg,
		logger:   logger,
		relay:    &relay{interim: rc.InterimResults},
		language: language,
	}
	r.relay.onActivity(r.touch)
	return r
}

// SetLanguage sets the language used by the next Start.
func (r *Recognizer) SetLanguage(tag locale.Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = tag
}

// Listen attaches l to recognition events; nil detaches.
func (r *Recognizer) Listen(l session.Listener) {
	r.relay.attach(l)
}

// Start opens a push stream and begins continuous recognition.
func (r *Recognizer) Start() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("azure recognizer already started")
	}
	previous := r.native
	r.native = nil
	language := r.language
	run := r.relay.begin()
	r.run = run
	r.mu.Unlock()

	if previous != nil {
		previous.close()
	}

	n, err := r.open(language, run)
	if err != nil {
		return err
	}

	err = runWithTimeout(context.Background(), r.cfg.StartTimeout, func() error {
		return <-n.recognizer.StartContinuousRecognitionAsync()
	})
	if err != nil {
		n.close()
		return fmt.Errorf("start continuous recognition: %w", err)
	}

	r.mu.Lock()
	r.native = n
	if r.stoppedRun == run {
		// The service ended the run while it was starting.
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.resetIdleLocked()
	r.mu.Unlock()

	r.logger.Debug("azure recognition started", "language", language.String())
	return nil
}

// Write pushes PCM audio into the active stream.
func (r *Recognizer) Write(p []byte) error {
	r.mu.Lock()
	n, running := r.native, r.running
	r.mu.Unlock()
	if n == nil || !running {
		return ErrNotRunning
	}
	return n.stream.Write(p)
}

// Stop ends the audio stream and waits for the service to flush results.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	n := r.native
	if n == nil || !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.stopIdleLocked()
	r.mu.Unlock()

	n.stream.CloseStream()
	err := runWithTimeout(context.Background(), r.cfg.StopTimeout, func() error {
		return <-n.recognizer.StopContinuousRecognitionAsync()
	})
	if err != nil {
		return fmt.Errorf("stop continuous recognition: %w", err)
	}
	return nil
}

// Close releases native handles. The recognizer cannot be restarted.
func (r *Recognizer) Close() error {
	r.relay.attach(nil)

	r.mu.Lock()
	n := r.native
	r.native = nil
	r.running = false
	r.stopIdleLocked()
	r.mu.Unlock()

	if n != nil {
		n.close()
	}
	return nil
}

func (r *Recognizer) open(language locale.Tag, run uint64) (*native, error) {
	n := &native{}
	fail := func(step string, err error) (*native, error) {
		n.close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	var err error
	if n.config, err = speech.NewSpeechConfigFromSubscription(r.cfg.Key, r.cfg.Region); err != nil {
		return fail("create speech config", err)
	}
	if err := n.config.SetSpeechRecognitionLanguage(language.String()); err != nil {
		return fail("set recognition language", err)
	}
	if ms := r.cfg.EndSilenceTimeout.Milliseconds(); ms > 0 {
		if err := n.config.SetProperty(common.SpeechServiceConnectionEndSilenceTimeoutMs, strconv.FormatInt(ms, 10)); err != nil {
			return fail("set end silence timeout", err)
		}
	}

	format, err := audio.GetWaveFormatPCM(SampleRate, 16, 1)
	if err != nil {
		return fail("create audio format", err)
	}
	if n.stream, err = audio.CreatePushAudioInputStreamFromFormat(format); err != nil {
		return fail("create push stream", err)
	}
	if n.audioCfg, err = audio.NewAudioConfigFromStreamInput(n.stream); err != nil {
		return fail("create audio config", err)
	}
	if n.recognizer, err = speech.NewSpeechRecognizerFromConfig(n.config, n.audioCfg); err != nil {
		return fail("create recognizer", err)
	}

	if phrases := cleanPhrases(r.cfg.Phrases); len(phrases) > 0 {
		if n.phrases, err = speech.NewPhraseListGrammarFromRecognizer(n.recognizer); err != nil {
			return fail("create phrase list", err)
		}
		for _, phrase := range phrases {
			if err := n.phrases.AddPhrase(phrase); err != nil {
				return fail("add phrase", err)
			}
		}
	}

	r.wire(n.recognizer, run)
	return n, nil
}

// wire routes rec callbacks to the relay as events of run.
func (r *Recognizer) wire(rec *speech.SpeechRecognizer, run uint64) {
	rec.SessionStarted(func(e speech.SessionEventArgs) {
		defer e.Close()
		r.logger.Debug("azure session started", "session_id", e.SessionID)
	})
	rec.Recognizing(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()
		r.relay.recognizing(run, e.Result.Text)
	})
	rec.Recognized(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()
		r.relay.recognized(run, e.Result.Reason, e.Result.Text)
	})
	rec.Canceled(func(e speech.SpeechRecognitionCanceledEventArgs) {
		defer e.Close()
		if e.Reason == common.Error {
			r.logger.Warn("azure recognition canceled", "error_code", int(e.ErrorCode), "details", e.ErrorDetails)
		}
		r.markStopped(run)
		r.relay.canceled(run, e.Reason, e.ErrorDetails)
	})
	rec.SessionStopped(func(e speech.SessionEventArgs) {
		defer e.Close()
		r.markStopped(run)
		r.relay.ended(run)
	})
}

// markStopped records a service-initiated end of run so Write fails fast.
func (r *Recognizer) markStopped(run uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run != r.run {
		return
	}
	r.stoppedRun = run
	r.running = false
	r.stopIdleLocked()
}

// touch restarts the idle timer on speech activity.
func (r *Recognizer) touch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.resetIdleLocked()
	}
}

func (r *Recognizer) resetIdleLocked() {
	if r.cfg.IdleTimeout <= 0 {
		return
	}
	if r.idle != nil {
		r.idle.Reset(r.cfg.IdleTimeout)
		return
	}
	r.idle = time.AfterFunc(r.cfg.IdleTimeout, r.expire)
}

func (r *Recognizer) stopIdleLocked() {
	if r.idle != nil {
		r.idle.Stop()
	}
}

// expire ends recognition after the idle timeout and reports a natural end.
func (r *Recognizer) expire() {
	r.mu.Lock()
	run := r.run
	r.mu.Unlock()

	r.logger.Info("azure recognition idle timeout", "timeout", r.cfg.IdleTimeout.String())
	if err := r.Stop(); err != nil {
		r.logger.Warn("idle stop failed", "error", err.Error())
	}
	// SessionStopped usually reports the end already; the relay keeps it to one.
	r.relay.ended(run)
}

func cleanPhrases(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, phrase := range raw {
		phrase = strings.Join(strings.Fields(phrase), " ")
		if phrase == "" {
			continue
		}
		key := strings.ToLower(phrase)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, phrase)
	}
	return out
}
