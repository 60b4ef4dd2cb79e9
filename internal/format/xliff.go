package format

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/valpere/subtran/internal/document"
)

// unitElements are the XLIFF containers whose <source> text is
// translatable: trans-unit (1.2), unit and segment (2.0).
var unitElements = map[string]bool{
	"trans-unit": true,
	"unit":       true,
	"segment":    true,
}

// XLIFFParser extracts the text content of <source> elements inside
// translation units. It never re-serializes the XML: the document is
// sliced into byte ranges at translatable character data, and every
// other range — tags with their attribute order, whitespace, comments,
// the declaration — is carried as a verbatim structural node. This is
// what keeps the round trip byte-identical outside the translated text.
type XLIFFParser struct{}

func NewXLIFFParser() *XLIFFParser {
	return &XLIFFParser{}
}

func (p *XLIFFParser) Name() string {
	return "xliff"
}

func (p *XLIFFParser) Parse(data []byte) (*document.Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	doc := &document.Document{Format: p.Name()}

	var (
		stack   []string
		token   document.PositionToken
		mark    int64 // input consumed into nodes so far
		sawText bool  // character data seen in the current <source>
	)

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: p.Name(), Msg: err.Error(), Err: err}
		}
		end := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if t.Name.Local == "source" && translatable(stack) {
				sawText = false
			}

		case xml.EndElement:
			if t.Name.Local == "source" && translatable(stack) && !sawText {
				// Empty <source>: keep an empty text node so the
				// reassembler has a slot, never sent for translation.
				if start > mark {
					doc.Nodes = append(doc.Nodes, document.Node{
						Kind: document.KindStructural,
						Raw:  string(data[mark:start]),
					})
				}
				doc.Nodes = append(doc.Nodes, document.Node{
					Kind:  document.KindText,
					Token: token,
				})
				token++
				mark = start
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if translatable(stack) {
				sawText = true
				if start > mark {
					doc.Nodes = append(doc.Nodes, document.Node{
						Kind: document.KindStructural,
						Raw:  string(data[mark:start]),
					})
				}
				doc.Nodes = append(doc.Nodes, document.Node{
					Kind:  document.KindText,
					Raw:   string(data[start:end]),
					Text:  string(t),
					Token: token,
				})
				token++
				mark = end
			}
		}
	}

	if len(stack) != 0 {
		return nil, &ParseError{
			Format: p.Name(),
			Msg:    "unbalanced elements: document ended inside <" + stack[len(stack)-1] + ">",
		}
	}

	if int(mark) < len(data) {
		doc.Nodes = append(doc.Nodes, document.Node{
			Kind: document.KindStructural,
			Raw:  string(data[mark:]),
		})
	}

	return doc, nil
}

// translatable reports whether the element stack sits inside a <source>
// that belongs to a translation unit. Inline elements nested in the
// source (<g>, <x>, <bpt>…) stay structural, but the text between them
// is still translatable.
func translatable(stack []string) bool {
	seenUnit := false
	for _, name := range stack {
		if unitElements[name] {
			seenUnit = true
		}
		if name == "source" && seenUnit {
			return true
		}
	}
	return false
}
