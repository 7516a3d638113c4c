package doctor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/basket/internal/config"
	"github.com/rbright/basket/internal/ipc"
	"github.com/rbright/basket/internal/locale"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckConfig(t *testing.T) {
	check := checkConfig(config.Loaded{Path: "/tmp/config.jsonc", Exists: false})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "using defaults")

	check = checkConfig(config.Loaded{
		Path:     "/tmp/config.jsonc",
		Exists:   true,
		EnvFile:  "/tmp/.env",
		Warnings: []config.Warning{{Message: "x"}},
	})
	require.Contains(t, check.Message, `env from "/tmp/.env"`)
	require.Contains(t, check.Message, "1 warning(s)")
}

func TestCheckSpeechCredentials(t *testing.T) {
	check := checkSpeechCredentials(config.SpeechConfig{})
	require.False(t, check.Pass)
	require.Equal(t, "AZURE_SPEECH_KEY and AZURE_SPEECH_REGION not set", check.Message)

	check = checkSpeechCredentials(config.SpeechConfig{Key: "k"})
	require.False(t, check.Pass)
	require.Equal(t, "AZURE_SPEECH_REGION not set", check.Message)

	check = checkSpeechCredentials(config.SpeechConfig{Key: "k", Region: "eastus", Language: locale.HindiIN})
	require.True(t, check.Pass)
	require.Equal(t, "region eastus, language hi-IN", check.Message)
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckBinaryUsesPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "busctl"), []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkBinary("busctl", "desktop notifications")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, filepath.Join(dir, "busctl"))
}

func TestCheckBackendSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/seasonal", r.URL.Path)
		_, _ = w.Write([]byte(`["mangoes"]`))
	}))
	t.Cleanup(server.Close)

	check := checkBackend(context.Background(), config.BackendConfig{URL: server.URL + "/api"})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "reachable")
}

func TestCheckBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no such route"}`))
	}))
	t.Cleanup(server.Close)

	check := checkBackend(context.Background(), config.BackendConfig{URL: server.URL})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "no such route")

	check = checkBackend(context.Background(), config.BackendConfig{URL: "not a url"})
	require.False(t, check.Pass)
}

func TestCheckUserID(t *testing.T) {
	check := checkUserID("user_cfg", "")
	require.True(t, check.Pass)
	require.Equal(t, "user_cfg (from config)", check.Message)

	path := filepath.Join(t.TempDir(), "user_id")
	check = checkUserID("", path)
	require.True(t, check.Pass)
	require.True(t, strings.HasPrefix(check.Message, "user_"))
	require.Contains(t, check.Message, "persisted at")
}

func TestCheckListener(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "basket.sock")
	check := checkListener(context.Background(), socketPath)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "not running")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(func(context.Context, ipc.Request) ipc.Response {
			return ipc.Response{OK: true, State: "listening", Language: "en-US"}
		}), nil)
	}()

	check = checkListener(context.Background(), socketPath)
	require.Equal(t, "running, state=listening language=en-US", check.Message)

	cancel()
	require.NoError(t, <-done)
}
