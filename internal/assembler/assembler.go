// Package assembler regenerates an output document from the original
// parse and a set of translation results. Structural nodes are emitted
// verbatim, so every byte outside the translated text survives
// unchanged regardless of the order in which results arrived.
package assembler

import (
	"fmt"
	"strings"

	"github.com/valpere/subtran/internal/dispatch"
	"github.com/valpere/subtran/internal/document"
)

// Policy decides what a text node becomes when its segment has no
// translation.
type Policy int

const (
	// KeepSource emits the original text unchanged. The safe default:
	// the output stays a complete, usable document.
	KeepSource Policy = iota

	// MarkFailed wraps the original text in a visible marker so failed
	// segments can be found and re-run.
	MarkFailed
)

// ParsePolicy maps the config strings "keep-source" and "mark-failed".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "keep-source":
		return KeepSource, nil
	case "mark-failed":
		return MarkFailed, nil
	default:
		return KeepSource, fmt.Errorf("unknown failure policy: %q", s)
	}
}

// failureMarker wraps untranslated text under the MarkFailed policy.
const failureMarker = "[UNTRANSLATED] "

// Render walks the document in parse order and substitutes each text
// node's content with its translation. Whitespace-only text nodes were
// never dispatched and are emitted from source; a missing result is
// treated like a failed one (the dispatcher contract makes this
// impossible, but a hole in the map must not corrupt the output).
func Render(doc *document.Document, results map[document.PositionToken]dispatch.Result, policy Policy) []byte {
	var sb strings.Builder

	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.Kind == document.KindStructural {
			sb.WriteString(n.Raw)
			continue
		}

		if strings.TrimSpace(n.Text) == "" {
			sb.WriteString(n.Raw)
			continue
		}

		res, ok := results[n.Token]
		text := n.Text
		switch {
		case ok && !res.Failed():
			text = res.Text
		case policy == MarkFailed:
			text = failureMarker + n.Text
		}

		// Unchanged text (identity translation, keep-source fallback)
		// is emitted from Raw, keeping the source's original escaping
		// byte for byte.
		if text == n.Text {
			sb.WriteString(n.Raw)
			continue
		}

		sb.WriteString(n.Prefix)
		if doc.Format == "xliff" {
			sb.WriteString(escapeXMLText(text))
		} else {
			sb.WriteString(text)
		}
		sb.WriteString(n.Suffix)
	}

	return []byte(sb.String())
}

// escapeXMLText escapes only the characters that must not appear bare
// in XML character data. It runs on translated content only; unchanged
// text is emitted from the node's raw bytes instead.
func escapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
