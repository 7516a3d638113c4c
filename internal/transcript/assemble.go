// Package transcript assembles recognized ASR segments.
package transcript

import "strings"

// Segment is one recognized chunk of speech. Final segments will not be
// revised by the engine; interim ones may be.
type Segment struct {
	Text  string
	Final bool
}

// Batch is the split form of one engine result event.
type Batch struct {
	// Interims holds interim texts in arrival order, unjoined.
	Interims []string
	// Final is the joined final text, empty when nothing final was heard.
	Final string
}

// Assemble splits one engine batch into its interim texts and the joined
// final text.
func Assemble(segments []Segment) Batch {
	var batch Batch
	finals := make([]string, 0, len(segments))
	for _, seg := range segments {
		if !seg.Final {
			batch.Interims = append(batch.Interims, seg.Text)
			continue
		}
		finals = append(finals, seg.Text)
	}
	batch.Final = Join(finals)
	return batch
}

// Join concatenates final segments with a single separating space. Segments
// that are blank after trimming are skipped.
func Join(finalSegments []string) string {
	if len(finalSegments) == 0 {
		return ""
	}

	parts := make([]string, 0, len(finalSegments))
	for _, seg := range finalSegments {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
