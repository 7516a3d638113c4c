// Package session coordinates the recognition lifecycle and turns engine
// events into result and error callbacks.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbright/basket/internal/fsm"
	"github.com/rbright/basket/internal/locale"
	"github.com/rbright/basket/internal/transcript"
)

const genericErrorReason = "speech error"

// binding is the controller's one live recognizer.
type binding struct {
	id       uint64
	rec      Recognizer
	language locale.Tag
	// run identifies the current Start on this binding. Events stamped with
	// an earlier run are stale. Guarded by Controller.mu.
	run uint64
	// accepting is true from a start request until end, error or teardown.
	// Guarded by Controller.mu.
	accepting bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithStateObserver registers fn to be called after every state change.
// fn runs without the controller lock held.
func WithStateObserver(fn func(fsm.State)) Option {
	return func(c *Controller) {
		c.observe = fn
	}
}

// Controller owns at most one recognizer binding and reconciles its events
// into the idle/starting/listening lifecycle.
type Controller struct {
	logger     *slog.Logger
	engine     Engine
	onResult   ResultFunc
	onError    ErrorFunc
	observe    func(fsm.State)
	supportErr error

	mu       sync.Mutex
	state    fsm.State
	language locale.Tag
	binding  *binding
	nextID   uint64
	nextRun  uint64
	closed   bool
}

// NewController constructs a controller targeting language. The engine is
// probed once; when it is nil or unavailable every operation is a no-op.
func NewController(
	logger *slog.Logger,
	engine Engine,
	language locale.Tag,
	onResult ResultFunc,
	onError ErrorFunc,
	opts ...Option,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if onResult == nil {
		onResult = func(string, bool) {}
	}
	if onError == nil {
		onError = func(string) {}
	}
	if !language.Supported() {
		language = locale.Default
	}

	c := &Controller{
		logger:   logger,
		engine:   engine,
		onResult: onResult,
		onError:  onError,
		state:    fsm.StateIdle,
		language: language,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case engine == nil:
		c.supportErr = ErrUnsupported
	default:
		if err := engine.Available(); err != nil {
			c.supportErr = fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
	}
	if c.supportErr != nil {
		c.logger.Warn("speech recognition unavailable", "error", c.supportErr.Error())
	}
	return c
}

// Supported reports whether the speech capability is usable.
func (c *Controller) Supported() bool {
	return c.supportErr == nil
}

// Unsupported returns why the capability is unusable, or nil.
func (c *Controller) Unsupported() error {
	return c.supportErr
}

// State returns the current lifecycle state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Language returns the target language used by the next start.
func (c *Controller) Language() locale.Tag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// SetLanguage changes the target language. While idle an existing binding is
// torn down immediately; while starting or listening the live recognizer
// keeps its language and the change applies on the next Start.
func (c *Controller) SetLanguage(tag locale.Tag) error {
	if !tag.Supported() {
		return fmt.Errorf("unsupported language %q", tag)
	}

	c.mu.Lock()
	if tag == c.language {
		c.mu.Unlock()
		return nil
	}
	c.language = tag

	var stale *binding
	if c.state == fsm.StateIdle && c.binding != nil {
		stale = c.binding
		c.binding = nil
	}
	c.mu.Unlock()

	c.logger.Info("language changed", "language", tag.String())
	if stale != nil {
		c.teardown(stale)
	}
	return nil
}

// Start begins recognition. It is a no-op when the capability is
// unsupported, the controller is closed, or it is not idle. Start failures
// are reported through the error callback and leave the controller idle.
func (c *Controller) Start() {
	if c.supportErr != nil {
		c.logger.Debug("start ignored", "reason", "unsupported")
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err := c.transitionLocked(fsm.EventStart); err != nil {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("start ignored", "state", string(state))
		return
	}
	language := c.language
	current := c.binding
	var stale *binding
	if current != nil && current.language != language {
		stale = current
		current = nil
		c.binding = nil
	}
	c.mu.Unlock()
	c.notify(fsm.StateStarting)

	if stale != nil {
		c.teardown(stale)
	}

	if current == nil {
		b, err := c.bind(language)
		if err != nil {
			c.fail(nil, fmt.Sprintf("start recognition: %v", err))
			return
		}
		current = b
	}

	c.mu.Lock()
	if c.closed || c.binding != current || c.state != fsm.StateStarting {
		c.mu.Unlock()
		c.logger.Debug("start abandoned", "binding", current.id)
		return
	}
	current.accepting = true
	c.nextRun++
	current.run = c.nextRun
	run := current.run
	c.mu.Unlock()

	current.rec.Listen(bindingListener{controller: c, id: current.id, run: run})
	current.rec.SetLanguage(language)
	if err := current.rec.Start(); err != nil {
		c.fail(current, err.Error())
		return
	}

	c.mu.Lock()
	if c.binding != current || c.state != fsm.StateStarting {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("start superseded", "binding", current.id, "state", string(state))
		return
	}
	_ = c.transitionLocked(fsm.EventStarted)
	c.mu.Unlock()

	c.logger.Info("recognition started", "language", language.String(), "binding", current.id)
	c.notify(fsm.StateListening)
}

// Stop ends recognition when listening; otherwise it is a no-op. The state
// becomes idle even when the recognizer reports a stop error, which is
// delivered through the error callback. Final text the engine flushes after
// Stop is still delivered.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != fsm.StateListening || c.binding == nil {
		c.mu.Unlock()
		return
	}
	_ = c.transitionLocked(fsm.EventStop)
	b := c.binding
	c.mu.Unlock()
	c.notify(fsm.StateIdle)

	if err := b.rec.Stop(); err != nil {
		c.logger.Error("stop recognition failed", "error", err.Error(), "binding", b.id)
		c.onError(err.Error())
		return
	}
	c.logger.Info("recognition stopped", "binding", b.id)
}

// Close tears down the live binding and makes every later operation a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	b := c.binding
	c.binding = nil
	changed := c.state != fsm.StateIdle
	c.state = fsm.StateIdle
	c.mu.Unlock()

	if changed {
		c.notify(fsm.StateIdle)
	}
	if b != nil {
		c.teardown(b)
	}
}

// bind constructs and installs a recognizer for language.
func (c *Controller) bind(language locale.Tag) (*binding, error) {
	rec, err := c.engine.NewRecognizer(RecognizerConfig{
		Language:        language,
		InterimResults:  true,
		Continuous:      true,
		MaxAlternatives: 1,
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("engine returned no recognizer")
	}

	c.mu.Lock()
	c.nextID++
	b := &binding{id: c.nextID, rec: rec, language: language}
	if c.closed {
		c.mu.Unlock()
		c.teardown(b)
		return nil, errors.New("controller closed")
	}
	c.binding = b
	c.mu.Unlock()

	c.logger.Debug("recognizer bound", "binding", b.id, "language", language.String())
	return b, nil
}

// teardown detaches, stops and closes b. Failures are logged and swallowed.
func (c *Controller) teardown(b *binding) {
	c.mu.Lock()
	b.accepting = false
	c.mu.Unlock()

	step := func(name string, fn func() error) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Debug("recognizer teardown panic", "step", name, "binding", b.id, "panic", fmt.Sprint(r))
			}
		}()
		if err := fn(); err != nil {
			c.logger.Debug("recognizer teardown failed", "step", name, "binding", b.id, "error", err.Error())
		}
	}

	step("detach", func() error { b.rec.Listen(nil); return nil })
	step("stop", b.rec.Stop)
	step("close", b.rec.Close)
}

// fail settles a failed start in idle and reports reason once.
func (c *Controller) fail(b *binding, reason string) {
	c.mu.Lock()
	if b != nil {
		if c.binding != b {
			c.mu.Unlock()
			return
		}
		b.accepting = false
	}
	if c.state != fsm.StateStarting {
		c.mu.Unlock()
		return
	}
	_ = c.transitionLocked(fsm.EventFail)
	c.mu.Unlock()

	c.logger.Error("start recognition failed", "reason", reason)
	c.notify(fsm.StateIdle)
	c.onError(reason)
}

// currentLocked returns the binding with id when it is live, accepting and
// still on run.
func (c *Controller) currentLocked(id, run uint64) *binding {
	if c.binding == nil || c.binding.id != id || c.binding.run != run || !c.binding.accepting {
		return nil
	}
	return c.binding
}

func (c *Controller) handleResults(id, run uint64, segments []Segment) {
	c.mu.Lock()
	b := c.currentLocked(id, run)
	c.mu.Unlock()
	if b == nil {
		c.logger.Debug("dropping results", "binding", id)
		return
	}

	batch := transcript.Assemble(segments)
	for _, text := range batch.Interims {
		c.onResult(text, false)
	}
	if batch.Final != "" {
		c.logger.Debug("final result", "binding", id, "chars", len(batch.Final))
		c.onResult(batch.Final, true)
	}
}

func (c *Controller) handleError(id, run uint64, reason string) {
	if reason == "" {
		reason = genericErrorReason
	}

	c.mu.Lock()
	b := c.currentLocked(id, run)
	if b == nil {
		c.mu.Unlock()
		c.logger.Debug("dropping error", "binding", id, "reason", reason)
		return
	}
	b.accepting = false
	if c.state == fsm.StateIdle {
		c.mu.Unlock()
		c.logger.Debug("error after stop", "binding", id, "reason", reason)
		return
	}
	_ = c.transitionLocked(fsm.EventFail)
	c.mu.Unlock()

	c.logger.Error("recognition error", "binding", id, "reason", reason)
	c.notify(fsm.StateIdle)
	c.onError(reason)
}

func (c *Controller) handleEnd(id, run uint64) {
	c.mu.Lock()
	b := c.currentLocked(id, run)
	if b == nil {
		c.mu.Unlock()
		return
	}
	b.accepting = false
	changed := c.state != fsm.StateIdle
	if changed {
		_ = c.transitionLocked(fsm.EventEnd)
	}
	c.mu.Unlock()

	c.logger.Info("recognition ended", "binding", id)
	if changed {
		c.notify(fsm.StateIdle)
	}
}

// transitionLocked applies one FSM event. c.mu must be held.
func (c *Controller) transitionLocked(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

func (c *Controller) notify(state fsm.State) {
	if c.observe != nil {
		c.observe(state)
	}
}

// bindingListener routes recognizer events tagged with their binding and run.
type bindingListener struct {
	controller *Controller
	id         uint64
	run        uint64
}

func (l bindingListener) OnResults(segments []Segment) {
	l.controller.handleResults(l.id, l.run, segments)
}
func (l bindingListener) OnError(reason string) { l.controller.handleError(l.id, l.run, reason) }
func (l bindingListener) OnEnd()                { l.controller.handleEnd(l.id, l.run) }
