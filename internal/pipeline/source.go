package pipeline

import (
	"context"

	"github.com/rbright/basket/internal/audio"
)

// Stream is one running capture.
type Stream interface {
	Chunks() <-chan []byte
	Stop() error
	Device() audio.Device
}

// Source resolves and opens the capture device.
type Source interface {
	Select(context.Context) (audio.Selection, error)
	Open(context.Context, audio.Device) (Stream, error)
}

// PulseSource captures from the configured Pulse input.
type PulseSource struct {
	Input    string
	Fallback string
}

// Select resolves Input/Fallback against live Pulse sources.
func (p PulseSource) Select(ctx context.Context) (audio.Selection, error) {
	return audio.SelectDevice(ctx, p.Input, p.Fallback)
}

// Open starts recording device until ctx is done or the stream is stopped.
func (p PulseSource) Open(ctx context.Context, device audio.Device) (Stream, error) {
	capture, err := audio.StartCapture(ctx, device)
	if err != nil {
		return nil, err
	}
	return capture, nil
}
