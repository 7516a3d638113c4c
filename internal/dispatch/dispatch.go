// Package dispatch executes parsed commands against the shopping-list
// backend and renders the last-action text shown to the user.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/basket/internal/backend"
	"github.com/rbright/basket/internal/command"
	"github.com/rbright/basket/internal/locale"
)

var (
	// ErrEmptyItem rejects add/remove commands that carry no item name.
	ErrEmptyItem = errors.New("item name required")
	// ErrNoLanguageSetter indicates no recognition session can take a
	// language change.
	ErrNoLanguageSetter = errors.New("language switching needs a running listener")
)

// Backend is the shopping-list subset the dispatcher drives.
type Backend interface {
	AddItem(ctx context.Context, name string, qty int) ([]backend.Item, error)
	RemoveItem(ctx context.Context, name string, qty int) ([]backend.Item, error)
	Clear(ctx context.Context) error
	Search(ctx context.Context, query string, filters command.SearchFilters) ([]backend.Product, error)
}

// LanguageSetter applies a recognition language change.
type LanguageSetter interface {
	SetLanguage(locale.Tag) error
}

// Outcome is the result of one dispatched command.
type Outcome struct {
	Command  command.Command
	Action   string
	Items    []backend.Item
	Products []backend.Product
	Err      error
}

// Message returns the text to surface: the action, or the error.
func (o Outcome) Message() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Action
}

// Dispatcher runs commands one at a time.
type Dispatcher struct {
	backend  Backend
	language LanguageSetter
	logger   *slog.Logger
}

// New constructs a dispatcher. language may be nil when no session runs.
func New(b Backend, language LanguageSetter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{backend: b, language: language, logger: logger}
}

// Handle parses text and dispatches the result. ok is false for blank text.
func (d *Dispatcher) Handle(ctx context.Context, text string) (Outcome, bool) {
	cmd := command.Parse(text)
	if cmd == nil {
		return Outcome{}, false
	}
	return d.Dispatch(ctx, cmd), true
}

// Dispatch executes cmd.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command) Outcome {
	out := Outcome{Command: cmd}

	switch c := cmd.(type) {
	case command.SetLanguage:
		if d.language == nil {
			out.Err = ErrNoLanguageSetter
			break
		}
		if err := d.language.SetLanguage(c.Lang); err != nil {
			out.Err = wrap("Error setting language", err)
			break
		}
		out.Action = fmt.Sprintf("Language set to %s", c.Lang)

	case command.AddItem:
		out.Items, out.Err = d.changeItem(ctx, "adding", c.Item, c.Qty, d.backend.AddItem)
		if out.Err == nil {
			out.Action = fmt.Sprintf("Added %d × %s", c.Qty, c.Item)
		}

	case command.RemoveItem:
		out.Items, out.Err = d.changeItem(ctx, "removing", c.Item, c.Qty, d.backend.RemoveItem)
		if out.Err == nil {
			out.Action = fmt.Sprintf("Removed %d × %s", c.Qty, c.Item)
		}

	case command.Search:
		products, err := d.backend.Search(ctx, c.Query, c.Filters)
		if err != nil {
			out.Err = wrap("Search error", err)
			break
		}
		out.Products = products
		out.Action = fmt.Sprintf("Searching for %q", c.Query)

	case command.ClearList:
		if err := d.backend.Clear(ctx); err != nil {
			out.Err = wrap("Error clearing list", err)
			break
		}
		out.Items = []backend.Item{}
		out.Action = "Cleared list"

	case command.Unknown:
		out.Action = fmt.Sprintf("Didn't understand: %q", c.Raw)

	default:
		out.Err = fmt.Errorf("unsupported command %T", cmd)
	}

	d.log(out)
	return out
}

type itemChange func(ctx context.Context, name string, qty int) ([]backend.Item, error)

func (d *Dispatcher) changeItem(ctx context.Context, verb, name string, qty int, change itemChange) ([]backend.Item, error) {
	label := "Error " + verb + " item"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, wrap(label, ErrEmptyItem)
	}
	items, err := change(ctx, name, qty)
	if err != nil {
		return nil, wrap(label, err)
	}
	return items, nil
}

// wrap prefixes err with label, preferring the service's own message.
func wrap(label string, err error) error {
	var backendErr *backend.Error
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return &labeledError{label: label, message: backendErr.Message, err: err}
	}
	return &labeledError{label: label, message: err.Error(), err: err}
}

type labeledError struct {
	label   string
	message string
	err     error
}

func (e *labeledError) Error() string { return e.label + ": " + e.message }
func (e *labeledError) Unwrap() error { return e.err }

func (d *Dispatcher) log(out Outcome) {
	kind := "none"
	if out.Command != nil {
		kind = out.Command.Kind().String()
	}
	if out.Err != nil {
		d.logger.Warn("command failed", "command", kind, "error", out.Err.Error())
		return
	}
	d.logger.Info("command applied", "command", kind, "action", out.Action)
}
