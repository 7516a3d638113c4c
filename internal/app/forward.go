package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rbright/basket/internal/ipc"
	"github.com/rbright/basket/internal/locale"
)

const (
	controlTimeout = 220 * time.Millisecond
	// say waits on backend calls made by the listener.
	sayTimeout = 15 * time.Second
)

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	alive, err := ipc.Probe(ctx, socketPath, controlTimeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if !alive {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, err := ipc.Call(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus}, controlTimeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintf(r.Stdout, "%s %s\n", resp.State, resp.Language)
	return 0
}

// forwardOrFail sends command to the running listener and prints its reply.
func (r Runner) forwardOrFail(ctx context.Context, command string, args ...string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	timeout := controlTimeout
	switch command {
	case ipc.CommandLanguage:
		tag, err := locale.Resolve(args[0])
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 2
		}
		args = []string{tag.String()}
	case ipc.CommandSay:
		timeout = sayTimeout
	}

	resp, err := ipc.Call(ctx, socketPath, ipc.Request{Command: command, Args: args}, timeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// remoteLanguage forwards language changes from one-shot commands to the
// running listener.
type remoteLanguage struct {
	ctx context.Context
}

func (l remoteLanguage) SetLanguage(tag locale.Tag) error {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}
	_, err = ipc.Call(l.ctx, socketPath, ipc.Request{Command: ipc.CommandLanguage, Args: []string{tag.String()}}, controlTimeout)
	return err
}
