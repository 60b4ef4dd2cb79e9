// Package document defines the parsed representation of a structured
// text-markup file. A Document is an ordered sequence of nodes, each
// either translatable text or inert structure (timing lines, XML tags,
// blank separators) carried verbatim. Concatenating the nodes in order
// reproduces the original file byte-for-byte; substituting the text of
// the translatable nodes produces a translated file with an identical
// structural skeleton.
package document

// NodeKind discriminates translatable text from inert structure.
type NodeKind int

const (
	// KindStructural marks a node emitted verbatim: timing lines, cue
	// indices, XML tags and attributes, blank separators.
	KindStructural NodeKind = iota

	// KindText marks a node whose Text is subject to translation.
	KindText
)

// PositionToken identifies a text node within its Document. Tokens are
// assigned in parse order and are unique per document; consumers treat
// them as opaque and use only equality.
type PositionToken int

// Node is one region of the source file.
//
// Structural nodes carry only Raw. Text nodes additionally carry the
// translatable Text plus the untranslatable Prefix and Suffix that
// surround it in the source (typically the line terminator, so that
// substitution preserves the original line-break style). For a text
// node, Raw == Prefix + <escaped source text> + Suffix.
type Node struct {
	Kind   NodeKind
	Raw    string
	Text   string
	Prefix string
	Suffix string
	Token  PositionToken
}

// Document is the parse result for one input file. It is never mutated
// after parsing; extraction and reassembly read it only.
type Document struct {
	Format string
	Nodes  []Node
}

// TextNodes returns the number of text nodes in the document, including
// empty ones.
func (d *Document) TextNodes() int {
	n := 0
	for i := range d.Nodes {
		if d.Nodes[i].Kind == KindText {
			n++
		}
	}
	return n
}
