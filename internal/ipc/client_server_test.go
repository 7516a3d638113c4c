package ipc

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func serveTest(t *testing.T, handler HandlerFunc) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "basket.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, handler, nil)
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-serveDone)
	})
	return socketPath
}

func TestSendRoundTrip(t *testing.T) {
	socketPath := serveTest(t, func(_ context.Context, req Request) Response {
		if req.Command != CommandSay {
			return Response{OK: false, Error: "unexpected"}
		}
		return Response{
			OK:       true,
			State:    "listening",
			Language: "en-US",
			Message:  strings.Join(req.Args, " "),
			Parsed:   json.RawMessage(`{"type":"clear"}`),
		}
	})

	resp, err := Send(context.Background(), socketPath, Request{Command: CommandSay, Args: []string{"clear", "list"}}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "listening", resp.State)
	require.Equal(t, "en-US", resp.Language)
	require.Equal(t, "clear list", resp.Message)
	require.JSONEq(t, `{"type":"clear"}`, string(resp.Parsed))
}

func TestCallConvertsRejection(t *testing.T) {
	socketPath := serveTest(t, func(_ context.Context, _ Request) Response {
		return Response{OK: false, Error: "unsupported language \"fr-FR\""}
	})

	resp, err := Call(context.Background(), socketPath, Request{Command: CommandLanguage, Args: []string{"fr-FR"}}, 200*time.Millisecond)
	require.EqualError(t, err, `unsupported language "fr-FR"`)
	require.False(t, resp.OK)
}

func TestCallWithoutListener(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "basket.sock")
	_, err := Call(context.Background(), socketPath, Request{Command: CommandStatus}, 100*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no running listener")
}

func TestResponseErr(t *testing.T) {
	require.NoError(t, Response{OK: true}.Err())
	require.EqualError(t, Response{}.Err(), "listener rejected request")
	require.EqualError(t, Response{Error: "boom"}.Err(), "boom")
}

func TestSendDecodeResponseError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "basket.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		_, _ = reader.ReadBytes('\n')
		_, _ = conn.Write([]byte("not-json\n"))
	}()

	_, err = Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestSendReadResponseError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "basket.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		_ = conn.Close()
	}()

	_, err = Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "read response")
}

func TestServeDecodeRequestErrorResponse(t *testing.T) {
	socketPath := serveTest(t, func(_ context.Context, _ Request) Response {
		return Response{OK: true}
	})

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
}

func TestServeRejectsOversizedRequest(t *testing.T) {
	socketPath := serveTest(t, func(_ context.Context, _ Request) Response {
		return Response{OK: true}
	})

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		_, _ = conn.Write([]byte(strings.Repeat("a", maxRequestBytes+16)))
	}()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "read request")
}

func TestProbe(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "basket.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			if req.Command == CommandStatus {
				return Response{OK: true, State: "idle"}
			}
			return Response{OK: false, Error: "bad"}
		}), nil)
	}()

	alive, probeErr := Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, probeErr)
	require.True(t, alive)

	cancel()
	require.NoError(t, <-serveDone)

	alive, probeErr = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, probeErr)
	require.False(t, alive)
}
