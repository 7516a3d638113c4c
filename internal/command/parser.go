package command

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rbright/basket/internal/locale"
)

// rule is one interpretation tried against the case-folded utterance.
type rule struct {
	name  string
	match func(folded string) (Command, bool)
}

var (
	languagePattern = regexp.MustCompile(`(?:set|switch) (?:language|lang) (?:to )?(english|hindi|en|hi|en-us|hi-in)`)
	removePattern   = regexp.MustCompile(`\b(?:remove|delete|drop)\b\s+(?:(\d+)(?:\s+|$))?([a-z ]*)`)
	addPattern      = regexp.MustCompile(`\b(?:add|buy|need|want|purchase|get)\b\s+(?:(\d+)(?:\s+|$))?([a-z ]*)`)
	searchPattern   = regexp.MustCompile(`\b(?:find|search|look\s*for)\b\s+(.*)`)
	clearPattern    = regexp.MustCompile(`\b(?:clear|reset) (?:list|all)\b`)

	pricePattern   = regexp.MustCompile(`under\s*\$?(\d+(?:\.\d+)?)`)
	brandPattern   = regexp.MustCompile(`\bby\s+([a-z']+)`)
	organicPattern = regexp.MustCompile(`\borganic\b`)
)

// rules are evaluated in order; the first match wins. Remove precedes add so
// "remove 2 apples" is never read as an add.
var rules = []rule{
	{name: "language", match: matchLanguage},
	{name: "remove", match: matchRemove},
	{name: "add", match: matchAdd},
	{name: "search", match: matchSearch},
	{name: "clear", match: matchClear},
}

// Parse interprets one utterance. It returns nil for empty or whitespace-only
// input; any other input yields exactly one Command, Unknown when no rule
// matches.
func Parse(text string) Command {
	cmd, _ := interpret(text)
	return cmd
}

// Rule returns the name of the rule that interprets text, "unknown" when no
// rule matches, or "" for blank input.
func Rule(text string) string {
	_, name := interpret(text)
	return name
}

func interpret(text string) (Command, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ""
	}

	folded := cases.Fold().String(trimmed)
	for _, r := range rules {
		if cmd, ok := r.match(folded); ok {
			return cmd, r.name
		}
	}
	return Unknown{Raw: text}, KindUnknown.String()
}

func matchLanguage(folded string) (Command, bool) {
	m := languagePattern.FindStringSubmatch(folded)
	if m == nil {
		return nil, false
	}
	return SetLanguage{Lang: locale.FromSynonym(m[1])}, true
}

func matchRemove(folded string) (Command, bool) {
	item, qty, ok := matchItem(removePattern, folded)
	if !ok {
		return nil, false
	}
	return RemoveItem{Item: item, Qty: qty}, true
}

func matchAdd(folded string) (Command, bool) {
	item, qty, ok := matchItem(addPattern, folded)
	if !ok {
		return nil, false
	}
	return AddItem{Item: item, Qty: qty}, true
}

// matchItem extracts "{verb} [qty] {item}". A bare quantity with no item is
// accepted only when nothing follows it; a verb followed by neither is not.
func matchItem(pattern *regexp.Regexp, folded string) (string, int, bool) {
	for _, loc := range pattern.FindAllStringSubmatchIndex(folded, -1) {
		rawQty, item := group(folded, loc, 1), strings.TrimSpace(group(folded, loc, 2))
		if item == "" && (rawQty == "" || strings.TrimSpace(folded[loc[1]:]) != "") {
			continue
		}
		return item, parseQty(rawQty), true
	}
	return "", 0, false
}

func group(s string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}

// parseQty falls back to 1 for absent, malformed or non-positive values.
func parseQty(raw string) int {
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func matchSearch(folded string) (Command, bool) {
	m := searchPattern.FindStringSubmatch(folded)
	if m == nil {
		return nil, false
	}

	remainder := strings.TrimSpace(m[1])
	var filters SearchFilters
	var spans [][]int

	// Each filter is matched against the whole remainder so one filter's
	// words can also satisfy another ("by organic").
	if loc := pricePattern.FindStringSubmatchIndex(remainder); loc != nil {
		if price, err := strconv.ParseFloat(group(remainder, loc, 1), 64); err == nil && price > 0 {
			filters.MaxPrice = &price
		}
		spans = append(spans, loc[:2])
	}

	if loc := brandPattern.FindStringSubmatchIndex(remainder); loc != nil {
		brand := group(remainder, loc, 1)
		filters.Brand = &brand
		spans = append(spans, loc[:2])
	}

	if loc := organicPattern.FindStringIndex(remainder); loc != nil {
		organic := true
		filters.Organic = &organic
		spans = append(spans, loc)
	}

	query := strings.Join(strings.Fields(cut(remainder, spans)), " ")
	if query == "" {
		query = remainder
	}
	return Search{Query: query, Filters: filters}, true
}

// cut removes every byte covered by spans from s. Spans may overlap.
func cut(s string, spans [][]int) string {
	covered := make([]bool, len(s))
	for _, span := range spans {
		for i := span[0]; i < span[1]; i++ {
			covered[i] = true
		}
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if !covered[i] {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
