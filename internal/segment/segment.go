// Package segment extracts translatable units from a parsed document
// and groups them into size-bounded batches for dispatch.
package segment

import (
	"strings"

	"github.com/valpere/subtran/internal/document"
)

// Segment is one translatable unit, correlated back to its origin node
// by Token. Segments share no state and may be translated in any order.
type Segment struct {
	Token      document.PositionToken
	SourceText string
}

// Extract returns the document's translatable segments in node order.
// Text nodes whose content is empty or whitespace-only are skipped;
// the reassembler emits those verbatim from the source. Extraction is
// deterministic: the same document always yields the same segments and
// tokens.
func Extract(doc *document.Document) []Segment {
	var segs []Segment
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.Kind != document.KindText {
			continue
		}
		if strings.TrimSpace(n.Text) == "" {
			continue
		}
		segs = append(segs, Segment{Token: n.Token, SourceText: n.Text})
	}
	return segs
}

// Group packs segments into batches of at most maxCount segments and
// maxChars cumulative runes, preserving order. A segment is never split
// across batches; a single segment longer than maxChars forms a batch
// of its own. Non-positive limits mean unlimited.
func Group(segs []Segment, maxCount, maxChars int) [][]Segment {
	if len(segs) == 0 {
		return nil
	}

	var (
		batches [][]Segment
		current []Segment
		chars   int
	)

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, current)
			current = nil
			chars = 0
		}
	}

	for _, s := range segs {
		n := len([]rune(s.SourceText))
		if maxCount > 0 && len(current) >= maxCount {
			flush()
		}
		if maxChars > 0 && len(current) > 0 && chars+n > maxChars {
			flush()
		}
		current = append(current, s)
		chars += n
	}
	flush()

	return batches
}
