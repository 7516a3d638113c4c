package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/basket/internal/audio"
	"github.com/rbright/basket/internal/backend"
	"github.com/rbright/basket/internal/command"
	"github.com/rbright/basket/internal/config"
	"github.com/rbright/basket/internal/dispatch"
	"github.com/rbright/basket/internal/doctor"
	"github.com/rbright/basket/internal/version"
)

func (r Runner) commandParse(text string) int {
	cmd := command.Parse(text)
	if cmd == nil {
		fmt.Fprintln(r.Stderr, "error: nothing to parse")
		return 1
	}
	data, err := command.Marshal(cmd)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, string(data))
	return 0
}

func (r Runner) commandDo(ctx context.Context, cfg config.Config, logger *slog.Logger, text string) int {
	client, err := backendClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	d := dispatch.New(client, remoteLanguage{ctx: ctx}, logger)
	outcome, ok := d.Handle(ctx, text)
	if !ok {
		fmt.Fprintln(r.Stderr, "error: nothing to do")
		return 1
	}
	if outcome.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %s\n", outcome.Message())
		return 1
	}

	fmt.Fprintln(r.Stdout, outcome.Message())
	r.printProducts(outcome.Products)
	return 0
}

func (r Runner) commandList(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	client, err := backendClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	items, err := client.List(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(items) == 0 {
		fmt.Fprintln(r.Stdout, "shopping list is empty")
		return 0
	}
	for _, item := range items {
		if item.Category == "" {
			fmt.Fprintf(r.Stdout, "%d × %s\n", item.Qty, item.Name)
			continue
		}
		fmt.Fprintf(r.Stdout, "%d × %s (%s)\n", item.Qty, item.Name, item.Category)
	}
	return 0
}

func (r Runner) commandSuggest(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	client, err := backendClient(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var (
		history     []string
		seasonal    []string
		items       []backend.Item
		substitutes map[string][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		history, err = client.History(gctx)
		return err
	})
	g.Go(func() (err error) {
		seasonal, err = client.Seasonal(gctx)
		return err
	})
	g.Go(func() (err error) {
		items, err = client.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		substitutes, err = client.Substitutes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(r.Stdout, "history: %s\n", joinOrNone(history))
	fmt.Fprintf(r.Stdout, "seasonal: %s\n", joinOrNone(seasonal))
	suggestions := backend.SubstitutesFor(items, substitutes)
	if len(suggestions) == 0 {
		fmt.Fprintln(r.Stdout, "substitutes: none")
		return 0
	}
	fmt.Fprintln(r.Stdout, "substitutes:")
	for _, s := range suggestions {
		fmt.Fprintf(r.Stdout, "  %s -> %s\n", s.Base, strings.Join(s.Substitutes, ", "))
	}
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}
	return 0
}

func (r Runner) commandDoctor(ctx context.Context, loaded config.Loaded) int {
	report := doctor.Run(ctx, loaded)
	fmt.Fprintln(r.Stdout, report.String())
	if !report.OK() {
		return 1
	}
	return 0
}

func (r Runner) printProducts(products []backend.Product) {
	for _, p := range products {
		line := fmt.Sprintf("  %s", p.Name)
		if p.Brand != "" {
			line += " by " + p.Brand
		}
		if p.Price > 0 {
			line += fmt.Sprintf(" $%.2f", p.Price)
			if p.Unit != "" {
				line += "/" + p.Unit
			}
		}
		fmt.Fprintln(r.Stdout, line)
	}
}

// backendClient builds a client for the configured service and user.
func backendClient(cfg config.Config, logger *slog.Logger) (*backend.Client, error) {
	userPath, err := config.UserIDPath()
	if err != nil && strings.TrimSpace(cfg.Backend.UserID) == "" {
		return nil, err
	}
	userID, err := backend.ResolveUserID(cfg.Backend.UserID, userPath)
	if err != nil {
		return nil, fmt.Errorf("resolve user id: %w", err)
	}
	return backend.New(backend.Options{
		BaseURL:   cfg.Backend.URL,
		UserID:    userID,
		Timeout:   time.Duration(cfg.Backend.TimeoutMS) * time.Millisecond,
		Retries:   cfg.Backend.Retries,
		UserAgent: version.UserAgent(),
		Logger:    logger,
	})
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
