package command

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rbright/basket/internal/locale"
)

// envelope is the tagged JSON form shared by the IPC "say" reply and the
// `basket parse` output.
type envelope struct {
	Type    Kind           `json:"type"`
	Lang    locale.Tag     `json:"lang,omitempty"`
	Item    string         `json:"item,omitempty"`
	Qty     int            `json:"qty,omitempty"`
	Query   string         `json:"query,omitempty"`
	Filters *SearchFilters `json:"filters,omitempty"`
	Raw     string         `json:"raw,omitempty"`
}

// Marshal encodes cmd as a tagged JSON object.
func Marshal(cmd Command) ([]byte, error) {
	var env envelope
	switch c := cmd.(type) {
	case SetLanguage:
		env = envelope{Type: KindSetLanguage, Lang: c.Lang}
	case AddItem:
		env = envelope{Type: KindAdd, Item: c.Item, Qty: c.Qty}
	case RemoveItem:
		env = envelope{Type: KindRemove, Item: c.Item, Qty: c.Qty}
	case Search:
		filters := c.Filters
		env = envelope{Type: KindSearch, Query: c.Query, Filters: &filters}
	case ClearList:
		env = envelope{Type: KindClear}
	case Unknown:
		env = envelope{Type: KindUnknown, Raw: c.Raw}
	case nil:
		return nil, fmt.Errorf("marshal command: nil command")
	default:
		return nil, fmt.Errorf("marshal command: unsupported type %T", cmd)
	}
	return json.Marshal(env)
}

// Unmarshal decodes a tagged JSON object produced by Marshal.
func Unmarshal(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	switch env.Type {
	case KindSetLanguage:
		tag, err := locale.Parse(env.Lang.String())
		if err != nil {
			return nil, fmt.Errorf("decode command: %w", err)
		}
		return SetLanguage{Lang: tag}, nil
	case KindAdd:
		return AddItem{Item: env.Item, Qty: positive(env.Qty)}, nil
	case KindRemove:
		return RemoveItem{Item: env.Item, Qty: positive(env.Qty)}, nil
	case KindSearch:
		var filters SearchFilters
		if env.Filters != nil {
			filters = *env.Filters
		}
		return Search{Query: env.Query, Filters: filters}, nil
	case KindClear:
		return ClearList{}, nil
	case KindUnknown:
		return Unknown{Raw: env.Raw}, nil
	case "":
		return nil, fmt.Errorf("decode command: missing type")
	default:
		return nil, fmt.Errorf("decode command: unknown type %q", env.Type)
	}
}

func positive(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
