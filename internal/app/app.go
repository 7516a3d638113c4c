// Package app wires parsed CLI commands to the basket runtime.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/basket/internal/cli"
	"github.com/rbright/basket/internal/config"
	"github.com/rbright/basket/internal/logging"
	"github.com/rbright/basket/internal/session"
	"github.com/rbright/basket/internal/version"
)

const binaryName = "basket"

// EngineFactory builds the speech capability for the listen command.
type EngineFactory func(config.Config, *slog.Logger) session.Engine

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Engine overrides the Azure/Pulse speech engine.
	Engine EngineFactory
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	// parse has no side effects and needs no config.
	if parsed.Command == cli.CommandParse {
		return r.commandParse(parsed.Text())
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	cfg := cfgLoaded.Config

	level, _ := config.ParseLevel(cfg.Log.Level)
	logRuntime, err := logging.New(level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if cfgLoaded.Exists {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", string(parsed.Command),
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		return r.commandDoctor(ctx, cfgLoaded)
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStart, cli.CommandStop:
		return r.forwardOrFail(ctx, string(parsed.Command))
	case cli.CommandLanguage, cli.CommandSay:
		return r.forwardOrFail(ctx, string(parsed.Command), parsed.Args...)
	case cli.CommandDo:
		return r.commandDo(ctx, cfg, logger, parsed.Text())
	case cli.CommandList:
		return r.commandList(ctx, cfg, logger)
	case cli.CommandSuggest:
		return r.commandSuggest(ctx, cfg, logger)
	case cli.CommandListen:
		return r.commandListen(ctx, cfg, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}
