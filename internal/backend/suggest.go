package backend

import "strings"

// SubstitutesFor lists known alternatives for items on the list, in list
// order. Lookups are by lowercase name.
func SubstitutesFor(items []Item, substitutes map[string][]string) []Suggestion {
	var out []Suggestion
	for _, item := range items {
		subs := substitutes[strings.ToLower(item.Name)]
		if len(subs) == 0 {
			continue
		}
		out = append(out, Suggestion{Base: item.Name, Substitutes: subs})
	}
	return out
}
