package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseRejectsNonObjectContent(t *testing.T) {
	_, _, err := Parse("\n\nspeech.language = hi-IN", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
	require.Contains(t, err.Error(), "JSONC object")
}

func TestParseDedupesPhrasesAcrossSets(t *testing.T) {
	cfg, warnings, err := Parse(`{
  "vocab": {
    "global": ["commands", "pantry"],
    "sets": {
      "pantry": {"phrases": ["Basmati rice", "ghee", "Add"]}
    }
  }
}`, Default())
	require.NoError(t, err)
	require.NotEmpty(t, warnings)

	phrases, _, err := BuildSpeechPhrases(cfg)
	require.NoError(t, err)
	require.Contains(t, phrases, "basmati rice")
	require.Contains(t, phrases, "ghee")

	count := 0
	for _, phrase := range phrases {
		if phrase == "add" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestParseUnknownSectionFails(t *testing.T) {
	_, _, err := Parse(`{"paste": {"enable": true}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}
