// Package command turns free-text utterances into shopping-list commands.
package command

import "github.com/rbright/basket/internal/locale"

// Kind tags each Command variant. Values double as the JSON "type" field.
type Kind string

const (
	KindSetLanguage Kind = "setLanguage"
	KindAdd         Kind = "add"
	KindRemove      Kind = "remove"
	KindSearch      Kind = "search"
	KindClear       Kind = "clear"
	KindUnknown     Kind = "unknown"
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Command is one interpreted utterance. The set of implementations is closed:
// SetLanguage, AddItem, RemoveItem, Search, ClearList and Unknown.
type Command interface {
	Kind() Kind
	command()
}

// SetLanguage switches the recognition language.
type SetLanguage struct {
	Lang locale.Tag
}

// AddItem adds Qty units of Item to the list.
type AddItem struct {
	Item string
	Qty  int
}

// RemoveItem removes Qty units of Item from the list.
type RemoveItem struct {
	Item string
	Qty  int
}

// Search looks up products matching Query under Filters.
type Search struct {
	Query   string
	Filters SearchFilters
}

// ClearList empties the list.
type ClearList struct{}

// Unknown carries an utterance no rule matched, verbatim.
type Unknown struct {
	Raw string
}

// SearchFilters holds optional product constraints. A nil field means no
// constraint, which is distinct from a zero value.
type SearchFilters struct {
	MaxPrice *float64 `json:"maxPrice,omitempty"`
	Brand    *string  `json:"brand,omitempty"`
	Organic  *bool    `json:"organic,omitempty"`
}

// Empty reports whether no filter is set.
func (f SearchFilters) Empty() bool {
	return f.MaxPrice == nil && f.Brand == nil && f.Organic == nil
}

func (SetLanguage) Kind() Kind { return KindSetLanguage }
func (AddItem) Kind() Kind     { return KindAdd }
func (RemoveItem) Kind() Kind  { return KindRemove }
func (Search) Kind() Kind      { return KindSearch }
func (ClearList) Kind() Kind   { return KindClear }
func (Unknown) Kind() Kind     { return KindUnknown }

func (SetLanguage) command() {}
func (AddItem) command()     {}
func (RemoveItem) command()  {}
func (Search) command()      {}
func (ClearList) command()   {}
func (Unknown) command()     {}
