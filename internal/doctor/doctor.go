// Package doctor runs runtime readiness diagnostics for config, speech
// credentials, audio, the shopping-list backend and the listener socket.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/basket/internal/audio"
	"github.com/rbright/basket/internal/backend"
	"github.com/rbright/basket/internal/config"
	"github.com/rbright/basket/internal/ipc"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded), checkSpeechCredentials(cfg.Speech)}

	if cfg.Indicator.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}
	checks = append(checks, checkAudioSelection(ctx, cfg))
	checks = append(checks, checkBackend(ctx, cfg.Backend))

	if path, err := config.UserIDPath(); err == nil {
		checks = append(checks, checkUserID(cfg.Backend.UserID, path))
	} else {
		checks = append(checks, Check{Name: "backend.user", Pass: false, Message: err.Error()})
	}

	if path, err := ipc.RuntimeSocketPath(); err == nil {
		checks = append(checks, checkListener(ctx, path))
	} else {
		checks = append(checks, Check{Name: "listener", Pass: false, Message: err.Error()})
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	if loaded.EnvFile != "" {
		message += fmt.Sprintf(", env from %q", loaded.EnvFile)
	}
	if n := len(loaded.Warnings); n > 0 && loaded.Exists {
		message += fmt.Sprintf(", %d warning(s)", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkSpeechCredentials validates the Azure subscription settings without
// contacting the service.
func checkSpeechCredentials(cfg config.SpeechConfig) Check {
	var missing []string
	if strings.TrimSpace(cfg.Key) == "" {
		missing = append(missing, config.EnvSpeechKey)
	}
	if strings.TrimSpace(cfg.Region) == "" {
		missing = append(missing, config.EnvSpeechRegion)
	}
	if len(missing) > 0 {
		return Check{Name: "speech.credentials", Pass: false, Message: strings.Join(missing, " and ") + " not set"}
	}
	return Check{
		Name:    "speech.credentials",
		Pass:    true,
		Message: fmt.Sprintf("region %s, language %s", cfg.Region, cfg.Language),
	}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, purpose string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s (needed for %s)", bin, purpose)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, purpose)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkBackend issues one unauthenticated read against the service.
func checkBackend(ctx context.Context, cfg config.BackendConfig) Check {
	client, err := backend.New(backend.Options{BaseURL: cfg.URL, Timeout: probeTimeout})
	if err != nil {
		return Check{Name: "backend.reachable", Pass: false, Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := client.Seasonal(ctx); err != nil {
		return Check{Name: "backend.reachable", Pass: false, Message: fmt.Sprintf("%s: %v", cfg.URL, err)}
	}
	return Check{Name: "backend.reachable", Pass: true, Message: fmt.Sprintf("reachable at %s", cfg.URL)}
}

// checkUserID reports which user the list endpoints will act for.
func checkUserID(configured, path string) Check {
	id, err := backend.ResolveUserID(configured, path)
	if err != nil {
		return Check{Name: "backend.user", Pass: false, Message: err.Error()}
	}
	source := "persisted at " + path
	if strings.TrimSpace(configured) != "" {
		source = "from config"
	}
	return Check{Name: "backend.user", Pass: true, Message: fmt.Sprintf("%s (%s)", id, source)}
}

// checkListener reports whether a listener owns the socket. Both outcomes pass.
func checkListener(ctx context.Context, path string) Check {
	resp, err := ipc.Send(ctx, path, ipc.Request{Command: ipc.CommandStatus}, 300*time.Millisecond)
	if err != nil {
		return Check{Name: "listener", Pass: true, Message: fmt.Sprintf("not running (%s)", path)}
	}
	return Check{Name: "listener", Pass: true, Message: fmt.Sprintf("running, state=%s language=%s", resp.State, resp.Language)}
}
