package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rbright/basket/internal/locale"
)

type jsoncConfig struct {
	Speech    *jsoncSpeech    `json:"speech"`
	Audio     *jsoncAudio     `json:"audio"`
	Backend   *jsoncBackend   `json:"backend"`
	Session   *jsoncSession   `json:"session"`
	Indicator *jsoncIndicator `json:"indicator"`
	Vocab     *jsoncVocab     `json:"vocab"`
	Log       *jsoncLog       `json:"log"`
}

type jsoncSpeech struct {
	Region              *string `json:"region"`
	Language            *string `json:"language"`
	EndSilenceTimeoutMS *int    `json:"end_silence_timeout_ms"`
	IdleTimeoutMS       *int    `json:"idle_timeout_ms"`
	StartTimeoutMS      *int    `json:"start_timeout_ms"`
	StopTimeoutMS       *int    `json:"stop_timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncBackend struct {
	URL       *string `json:"url"`
	UserID    *string `json:"user_id"`
	TimeoutMS *int    `json:"timeout_ms"`
	Retries   *int    `json:"retries"`
}

type jsoncSession struct {
	AutoRestart *bool `json:"auto_restart"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	DesktopAppName *string `json:"desktop_app_name"`
	TimeoutMS      *int    `json:"timeout_ms"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Phrases []string `json:"phrases"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := cloneConfig(base)
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Speech != nil {
		if payload.Speech.Region != nil {
			cfg.Speech.Region = strings.TrimSpace(*payload.Speech.Region)
		}
		if payload.Speech.Language != nil {
			tag, err := locale.Parse(*payload.Speech.Language)
			if err != nil {
				return nil, fmt.Errorf("invalid speech.language: %w", err)
			}
			cfg.Speech.Language = tag
		}
		if payload.Speech.EndSilenceTimeoutMS != nil {
			cfg.Speech.EndSilenceTimeoutMS = *payload.Speech.EndSilenceTimeoutMS
		}
		if payload.Speech.IdleTimeoutMS != nil {
			cfg.Speech.IdleTimeoutMS = *payload.Speech.IdleTimeoutMS
		}
		if payload.Speech.StartTimeoutMS != nil {
			cfg.Speech.StartTimeoutMS = *payload.Speech.StartTimeoutMS
		}
		if payload.Speech.StopTimeoutMS != nil {
			cfg.Speech.StopTimeoutMS = *payload.Speech.StopTimeoutMS
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Backend != nil {
		if payload.Backend.URL != nil {
			cfg.Backend.URL = strings.TrimSpace(*payload.Backend.URL)
		}
		if payload.Backend.UserID != nil {
			cfg.Backend.UserID = strings.TrimSpace(*payload.Backend.UserID)
		}
		if payload.Backend.TimeoutMS != nil {
			cfg.Backend.TimeoutMS = *payload.Backend.TimeoutMS
		}
		if payload.Backend.Retries != nil {
			cfg.Backend.Retries = *payload.Backend.Retries
		}
	}

	if payload.Session != nil && payload.Session.AutoRestart != nil {
		cfg.Session.AutoRestart = *payload.Session.AutoRestart
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.TimeoutMS != nil {
			cfg.Indicator.TimeoutMS = *payload.Indicator.TimeoutMS
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.Vocab != nil {
		if payload.Vocab.Global != nil {
			cfg.Vocab.GlobalSets = make([]string, 0, len(*payload.Vocab.Global))
			for _, name := range *payload.Vocab.Global {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				cfg.Vocab.GlobalSets = append(cfg.Vocab.GlobalSets, name)
			}
		}
		if payload.Vocab.MaxPhrases != nil {
			cfg.Vocab.MaxPhrases = *payload.Vocab.MaxPhrases
		}
		for name, set := range payload.Vocab.Sets {
			trimmedName := strings.TrimSpace(name)
			if trimmedName == "" {
				return nil, fmt.Errorf("vocab.sets contains an empty set name")
			}
			phrases := make([]string, 0, len(set.Phrases))
			phrases = append(phrases, set.Phrases...)
			cfg.Vocab.Sets[trimmedName] = VocabSet{Name: trimmedName, Phrases: phrases}
		}
	}

	if payload.Log != nil && payload.Log.Level != nil {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(*payload.Log.Level))
	}

	return warnings, nil
}

// cloneConfig copies the mutable containers of cfg so parsing never
// writes through to the caller's base.
func cloneConfig(cfg Config) Config {
	out := cfg
	out.Vocab.GlobalSets = append([]string(nil), cfg.Vocab.GlobalSets...)
	out.Vocab.Sets = make(map[string]VocabSet, len(cfg.Vocab.Sets))
	for name, set := range cfg.Vocab.Sets {
		out.Vocab.Sets[name] = set
	}
	return out
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
