package config

import (
	"fmt"
	"strings"
)

// Parse reads JSONC configuration content on top of base.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		line := 1 + strings.Count(content[:strings.Index(content, trimmed)], "\n")
		return Config{}, nil, fmt.Errorf("line %d: config must be a JSONC object", line)
	}
	return parseJSONC(content, base)
}
