package config

import "github.com/rbright/basket/internal/locale"

// DefaultBackendURL is the local shopping-list service address.
const DefaultBackendURL = "http://127.0.0.1:5000/api"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Speech: SpeechConfig{
			Language:       locale.Default,
			StartTimeoutMS: 5000,
			StopTimeoutMS:  10000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Backend: BackendConfig{
			URL:       DefaultBackendURL,
			TimeoutMS: 5000,
			Retries:   2,
		},
		Session: SessionConfig{AutoRestart: true},
		Indicator: IndicatorConfig{
			Enable:         true,
			DesktopAppName: "basket",
			TimeoutMS:      2500,
			ErrorTimeoutMS: 4000,
		},
		Vocab: VocabConfig{
			GlobalSets: []string{"commands"},
			Sets: map[string]VocabSet{
				"commands": {
					Name: "commands",
					Phrases: []string{
						"add", "remove", "clear list", "reset all",
						"look for", "organic", "set language to hindi", "set language to english",
					},
				},
			},
			MaxPhrases: 500,
		},
		Log: LogConfig{Level: "info"},
	}
}
