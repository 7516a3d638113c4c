// Package ipc carries newline-delimited JSON requests between basket
// commands and a running listener over a unix socket.
package ipc

import (
	"errors"

	"github.com/goccy/go-json"
)

// Commands served by a running listener.
const (
	CommandStatus   = "status"
	CommandStart    = "start"
	CommandStop     = "stop"
	CommandLanguage = "language"
	CommandSay      = "say"
)

type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type Response struct {
	OK       bool   `json:"ok"`
	State    string `json:"state,omitempty"`
	Language string `json:"language,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	// Parsed is the command a "say" request was interpreted as.
	Parsed json.RawMessage `json:"parsed,omitempty"`
}

// Err returns the remote failure carried by r, or nil when r is OK.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return errors.New("listener rejected request")
	}
	return errors.New(r.Error)
}
