// Package locale defines the recognition language tags basket understands.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Tag selects a recognition language/dialect, e.g. "en-US".
type Tag string

const (
	EnglishUS Tag = "en-US"
	HindiIN   Tag = "hi-IN"
)

// Default is used whenever no other tag is configured or recognized.
const Default = EnglishUS

// known lists supported tags in display order.
var known = []Tag{EnglishUS, HindiIN}

// synonyms maps spoken language words to tags.
var synonyms = map[string]Tag{
	"english": EnglishUS,
	"en":      EnglishUS,
	"en-us":   EnglishUS,
	"hindi":   HindiIN,
	"hi":      HindiIN,
	"hi-in":   HindiIN,
}

// Known returns the supported tags.
func Known() []Tag {
	return append([]Tag(nil), known...)
}

// String implements fmt.Stringer.
func (t Tag) String() string {
	return string(t)
}

// Supported reports whether t is one of the known tags.
func (t Tag) Supported() bool {
	for _, k := range known {
		if k == t {
			return true
		}
	}
	return false
}

// Parse canonicalizes raw (case-insensitive BCP 47, "hi_in" accepted) and
// rejects tags outside the known set.
func Parse(raw string) (Tag, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty language tag")
	}

	parsed, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q: %w", raw, err)
	}

	tag := Tag(parsed.String())
	if !tag.Supported() {
		return "", fmt.Errorf("unsupported language %q (supported: %s)", raw, joinKnown())
	}
	return tag, nil
}

// FromSynonym maps a spoken language word to its tag. Words outside the
// synonym set map to Default.
func FromSynonym(word string) Tag {
	if tag, ok := synonyms[strings.ToLower(strings.TrimSpace(word))]; ok {
		return tag
	}
	return Default
}

// Resolve accepts either a language word ("hindi") or a tag ("hi-IN").
func Resolve(raw string) (Tag, error) {
	if tag, ok := synonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return tag, nil
	}
	return Parse(raw)
}

func joinKnown() string {
	names := make([]string, 0, len(known))
	for _, k := range known {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
