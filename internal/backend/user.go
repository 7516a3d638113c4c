package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const userIDPrefix = "user_"

// ResolveUserID returns configured when set; otherwise the id persisted at
// path, creating it on first use.
func ResolveUserID(configured, path string) (string, error) {
	if id := strings.TrimSpace(configured); id != "" {
		return id, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", ErrNoUser
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read user id %q: %w", path, err)
	}

	id := NewUserID()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create user id dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write user id %q: %w", path, err)
	}
	return id, nil
}

// NewUserID returns "user_" followed by nine random hex characters.
func NewUserID() string {
	return userIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
