// Package indicator surfaces session state, heard text and command outcomes
// as replaceable desktop notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/basket/internal/config"
	"github.com/rbright/basket/internal/locale"
)

const dispatchTimeout = 400 * time.Millisecond

// Notifier is the listen-loop-facing indicator contract.
type Notifier interface {
	ShowListening(context.Context, locale.Tag)
	ShowHeard(context.Context, string)
	ShowAction(context.Context, string)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// Desktop sends freedesktop notifications over the user bus. Every message
// replaces the previous one so the desktop shows a single live surface.
type Desktop struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger

	mu             sync.Mutex
	messages       messages
	notificationID uint32
}

// NewDesktop creates an indicator from config.
func NewDesktop(cfg config.IndicatorConfig, language locale.Tag, logger *slog.Logger) *Desktop {
	return &Desktop{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFor(language),
	}
}

// ShowListening signals recognition start in language and switches the
// message catalog to match it.
func (d *Desktop) ShowListening(ctx context.Context, language locale.Tag) {
	d.mu.Lock()
	d.messages = messagesFor(language)
	msgs := d.messages
	d.mu.Unlock()

	d.send(ctx, notification{summary: msgs.title, body: msgs.listening, timeoutMS: 0})
}

// ShowHeard displays the latest interim or final transcript.
func (d *Desktop) ShowHeard(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	msgs := d.catalog()
	d.send(ctx, notification{summary: msgs.title, body: msgs.heard(text), timeoutMS: 0})
}

// ShowAction displays the outcome of a dispatched command.
func (d *Desktop) ShowAction(ctx context.Context, text string) {
	timeout := d.cfg.TimeoutMS
	if timeout <= 0 {
		timeout = 2500
	}
	d.send(ctx, notification{summary: d.catalog().title, body: text, timeoutMS: timeout})
}

// ShowError displays an error-state message with critical urgency.
func (d *Desktop) ShowError(ctx context.Context, text string) {
	msgs := d.catalog()
	if strings.TrimSpace(text) == "" {
		text = msgs.errorText
	}
	timeout := d.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 4000
	}
	d.send(ctx, notification{summary: msgs.title, body: text, timeoutMS: timeout, urgency: urgencyCritical})
}

// Hide dismisses the active notification.
func (d *Desktop) Hide(ctx context.Context) {
	if !d.cfg.Enable {
		return
	}
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()
	if id == 0 {
		return
	}

	d.run(ctx, func(ctx context.Context) error {
		return desktopDismiss(ctx, id)
	})
}

func (d *Desktop) catalog() messages {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.messages
}

// send dispatches n, replacing the current notification, and stores the
// id the server assigns.
func (d *Desktop) send(ctx context.Context, n notification) {
	if !d.cfg.Enable {
		return
	}

	appName := strings.TrimSpace(d.cfg.DesktopAppName)
	if appName == "" {
		appName = "basket"
	}
	n.appName = appName

	d.mu.Lock()
	n.replaceID = d.notificationID
	d.mu.Unlock()

	d.run(ctx, func(ctx context.Context) error {
		id, err := desktopNotify(ctx, n)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.notificationID = id
		d.mu.Unlock()
		return nil
	})
}

// run executes an indicator operation with a bounded timeout.
func (d *Desktop) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		d.log("indicator dispatch failed", err)
	}
}

// log emits debug-only indicator failures to the runtime logger.
func (d *Desktop) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}

// Nop discards every indicator call. Used when notifications are disabled
// or for one-shot commands.
type Nop struct{}

func (Nop) ShowListening(context.Context, locale.Tag) {}
func (Nop) ShowHeard(context.Context, string)         {}
func (Nop) ShowAction(context.Context, string)        {}
func (Nop) ShowError(context.Context, string)         {}
func (Nop) Hide(context.Context)                      {}
