package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/basket/internal/azure"
	"github.com/rbright/basket/internal/command"
	"github.com/rbright/basket/internal/config"
	"github.com/rbright/basket/internal/dispatch"
	"github.com/rbright/basket/internal/fsm"
	"github.com/rbright/basket/internal/indicator"
	"github.com/rbright/basket/internal/ipc"
	"github.com/rbright/basket/internal/locale"
	"github.com/rbright/basket/internal/pipeline"
	"github.com/rbright/basket/internal/session"
)

const (
	jobQueueSize   = 16
	restartBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

func (r Runner) commandListen(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	client, err := backendClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var notifier indicator.Notifier = indicator.Nop{}
	if cfg.Indicator.Enable {
		notifier = indicator.NewDesktop(cfg.Indicator, cfg.Speech.Language, logger)
	}

	loop := &voiceLoop{
		logger:      logger,
		stdout:      &lockedWriter{w: r.Stdout},
		stderr:      &lockedWriter{w: r.Stderr},
		notifier:    notifier,
		autoRestart: cfg.Session.AutoRestart,
		jobs:        make(chan job, jobQueueSize),
		restart:     make(chan struct{}, 1),
	}
	loop.controller = session.NewController(
		logger,
		r.engineFor(cfg, logger),
		cfg.Speech.Language,
		loop.onResult,
		loop.onError,
		session.WithStateObserver(loop.observe),
	)
	loop.dispatcher = dispatch.New(client, languageSwitch{loop: loop}, logger)

	if err := loop.controller.Unsupported(); err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v; serving typed commands only\n", err)
	} else {
		loop.want.Store(true)
		loop.requestStart()
	}

	logger.Info("listener ready", "socket", socketPath, "language", cfg.Speech.Language.String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.Serve(gctx, listener, ipc.HandlerFunc(loop.handle), logger)
	})
	g.Go(func() error {
		loop.runJobs(gctx)
		return nil
	})
	g.Go(func() error {
		loop.supervise(gctx)
		return nil
	})

	err = g.Wait()
	loop.want.Store(false)
	loop.controller.Close()
	notifier.Hide(context.Background())

	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("listener stopped")
	return 0
}

func (r Runner) engineFor(cfg config.Config, logger *slog.Logger) session.Engine {
	if r.Engine != nil {
		return r.Engine(cfg, logger)
	}

	phrases, _, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		logger.Warn("speech phrases skipped", "error", err.Error())
	}
	speech := azure.NewEngine(azure.Config{
		Key:               cfg.Speech.Key,
		Region:            cfg.Speech.Region,
		EndSilenceTimeout: time.Duration(cfg.Speech.EndSilenceTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(cfg.Speech.IdleTimeoutMS) * time.Millisecond,
		StartTimeout:      time.Duration(cfg.Speech.StartTimeoutMS) * time.Millisecond,
		StopTimeout:       time.Duration(cfg.Speech.StopTimeoutMS) * time.Millisecond,
		Phrases:           phrases,
	}, logger)
	source := pipeline.PulseSource{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback}
	return pipeline.NewEngine(speech, source, logger)
}

// job is one utterance to dispatch. reply, when set, receives the outcome.
type job struct {
	text  string
	reply chan dispatch.Outcome
}

// voiceLoop connects the recognition controller to the dispatcher, the IPC
// surface and the indicator.
type voiceLoop struct {
	logger      *slog.Logger
	stdout      io.Writer
	stderr      io.Writer
	notifier    indicator.Notifier
	controller  *session.Controller
	dispatcher  *dispatch.Dispatcher
	autoRestart bool

	jobs    chan job
	restart chan struct{}

	// want is true while recognition should be running.
	want     atomic.Bool
	failures atomic.Int32
}

func (l *voiceLoop) onResult(text string, final bool) {
	l.notifier.ShowHeard(context.Background(), text)
	if !final {
		return
	}

	fmt.Fprintf(l.stdout, "heard: %s\n", text)
	select {
	case l.jobs <- job{text: text}:
	default:
		l.logger.Warn("dropping final transcript", "reason", "queue full", "chars", len(text))
	}
}

func (l *voiceLoop) onError(reason string) {
	l.failures.Add(1)
	l.notifier.ShowError(context.Background(), reason)
	fmt.Fprintf(l.stderr, "speech error: %s\n", reason)
}

func (l *voiceLoop) observe(state fsm.State) {
	switch state {
	case fsm.StateListening:
		if !l.want.Load() {
			// stop arrived while the start was still in flight
			l.controller.Stop()
			return
		}
		l.failures.Store(0)
		l.notifier.ShowListening(context.Background(), l.controller.Language())
	case fsm.StateIdle:
		if !l.want.Load() {
			l.notifier.Hide(context.Background())
			return
		}
		if l.autoRestart {
			l.requestStart()
		}
	}
}

// requestStart queues a start; pending requests collapse into one.
func (l *voiceLoop) requestStart() {
	select {
	case l.restart <- struct{}{}:
	default:
	}
}

// supervise runs queued starts, backing off after consecutive failures.
func (l *voiceLoop) supervise(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.restart:
		}

		if delay := backoff(int(l.failures.Load())); delay > 0 {
			l.logger.Info("restart backoff", "delay_ms", delay.Milliseconds())
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		if !l.want.Load() {
			continue
		}
		l.controller.Start()
	}
}

func backoff(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	delay := restartBackoff
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// runJobs dispatches utterances one at a time in arrival order.
func (l *voiceLoop) runJobs(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-l.jobs:
			outcome, ok := l.dispatcher.Handle(ctx, j.text)
			if ok {
				l.report(ctx, outcome)
			}
			if j.reply != nil {
				j.reply <- outcome
			}
		}
	}
}

func (l *voiceLoop) report(ctx context.Context, outcome dispatch.Outcome) {
	if outcome.Err != nil {
		l.notifier.ShowError(ctx, outcome.Message())
		fmt.Fprintf(l.stderr, "error: %s\n", outcome.Message())
		return
	}
	l.notifier.ShowAction(ctx, outcome.Message())
	fmt.Fprintln(l.stdout, outcome.Message())
	for _, p := range outcome.Products {
		fmt.Fprintf(l.stdout, "  %s\n", p.Name)
	}
}

// submit queues text and waits for its outcome.
func (l *voiceLoop) submit(ctx context.Context, text string) (dispatch.Outcome, error) {
	reply := make(chan dispatch.Outcome, 1)
	select {
	case <-ctx.Done():
		return dispatch.Outcome{}, ctx.Err()
	case l.jobs <- job{text: text, reply: reply}:
	}
	select {
	case <-ctx.Done():
		return dispatch.Outcome{}, ctx.Err()
	case outcome := <-reply:
		return outcome, nil
	}
}

func (l *voiceLoop) handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return l.status("")

	case ipc.CommandStart:
		if err := l.controller.Unsupported(); err != nil {
			return ipc.Response{OK: false, Error: err.Error()}
		}
		l.want.Store(true)
		l.failures.Store(0)
		l.requestStart()
		return l.status("starting recognition")

	case ipc.CommandStop:
		l.want.Store(false)
		l.controller.Stop()
		return l.status("recognition stopped")

	case ipc.CommandLanguage:
		if len(req.Args) != 1 {
			return ipc.Response{OK: false, Error: "language requires exactly one argument"}
		}
		tag, err := locale.Resolve(req.Args[0])
		if err != nil {
			return ipc.Response{OK: false, Error: err.Error()}
		}
		outcome := l.dispatcher.Dispatch(ctx, command.SetLanguage{Lang: tag})
		if outcome.Err != nil {
			return ipc.Response{OK: false, Error: outcome.Message()}
		}
		l.report(ctx, outcome)
		return l.status(outcome.Message())

	case ipc.CommandSay:
		text := strings.TrimSpace(strings.Join(req.Args, " "))
		if text == "" {
			return ipc.Response{OK: false, Error: "say requires text"}
		}
		outcome, err := l.submit(ctx, text)
		if err != nil {
			return ipc.Response{OK: false, Error: err.Error()}
		}
		resp := l.status(outcome.Action)
		if parsed, err := command.Marshal(outcome.Command); err == nil {
			resp.Parsed = parsed
		}
		if outcome.Err != nil {
			resp.OK = false
			resp.Error = outcome.Message()
		}
		return resp

	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func (l *voiceLoop) status(message string) ipc.Response {
	return ipc.Response{
		OK:       true,
		State:    string(l.controller.State()),
		Language: l.controller.Language().String(),
		Message:  message,
	}
}

// languageSwitch applies spoken language changes. A live recognizer keeps
// its language, so it is restarted to pick up the new one.
type languageSwitch struct {
	loop *voiceLoop
}

func (s languageSwitch) SetLanguage(tag locale.Tag) error {
	controller := s.loop.controller
	if err := controller.SetLanguage(tag); err != nil {
		return err
	}
	if !controller.Supported() || controller.State() != fsm.StateListening {
		return nil
	}
	want := s.loop.want.Load()
	controller.Stop()
	if want {
		s.loop.requestStart()
	}
	return nil
}

// lockedWriter serializes writes from callback goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
