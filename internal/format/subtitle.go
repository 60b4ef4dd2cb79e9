package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/subtran/internal/document"
)

// timestampRe matches a cue time-range line: SRT uses comma millisecond
// separators, WebVTT uses dots and allows the hour group to be omitted.
// Trailing cue settings (WebVTT position/align) are permitted.
var timestampRe = regexp.MustCompile(
	`^\d{2,}:\d{2}(?::\d{2})?[.,]\d{3}\s*-->\s*\d{2,}:\d{2}(?::\d{2})?[.,]\d{3}(\s.*)?$`)

// timingPrefixRe recognizes a line that starts like a cue timestamp.
// Only such lines are held to timestampRe; an arrow inside ordinary cue
// text (say, "Go --> Stop") is just text.
var timingPrefixRe = regexp.MustCompile(`^\d{2,}:\d{2}`)

// blockKeywords start WebVTT metadata blocks whose lines are never
// translated. A block runs until the next blank line.
var blockKeywords = []string{"WEBVTT", "NOTE", "STYLE", "REGION"}

// SubtitleParser parses timed cue formats (SRT, WebVTT). Every line is
// one node: time-range lines, cue identifiers, metadata blocks and
// blank separators are structural; cue text lines are text nodes. Line
// terminators stay with their node, so CRLF files round-trip unchanged.
type SubtitleParser struct{}

func NewSubtitleParser() *SubtitleParser {
	return &SubtitleParser{}
}

func (p *SubtitleParser) Name() string {
	return "subtitle"
}

func (p *SubtitleParser) Parse(data []byte) (*document.Document, error) {
	lines := splitKeepEOL(string(data))

	doc := &document.Document{Format: p.Name()}
	var token document.PositionToken
	inMetaBlock := false

	for i, ln := range lines {
		trimmed := strings.TrimSpace(ln.text)

		switch {
		case trimmed == "":
			inMetaBlock = false
			doc.Nodes = append(doc.Nodes, structural(ln))

		case inMetaBlock:
			doc.Nodes = append(doc.Nodes, structural(ln))

		case strings.Contains(trimmed, "-->") && timestampRe.MatchString(trimmed):
			doc.Nodes = append(doc.Nodes, structural(ln))

		case strings.Contains(trimmed, "-->") && timingPrefixRe.MatchString(trimmed):
			return nil, &ParseError{
				Format: p.Name(),
				Line:   i + 1,
				Msg:    fmt.Sprintf("invalid time range %q", trimmed),
			}

		case startsMetaBlock(trimmed):
			inMetaBlock = true
			doc.Nodes = append(doc.Nodes, structural(ln))

		case isCueIdentifier(lines, i):
			doc.Nodes = append(doc.Nodes, structural(ln))

		default:
			doc.Nodes = append(doc.Nodes, document.Node{
				Kind:   document.KindText,
				Raw:    ln.text + ln.eol,
				Text:   ln.text,
				Suffix: ln.eol,
				Token:  token,
			})
			token++
		}
	}

	return doc, nil
}

type line struct {
	text string
	eol  string
}

// splitKeepEOL splits s into lines, keeping each line's terminator
// separate so it can be re-emitted exactly. The final line may have no
// terminator.
func splitKeepEOL(s string) []line {
	var lines []line
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i == -1 {
			lines = append(lines, line{text: s})
			break
		}
		text, eol := s[:i], "\n"
		if strings.HasSuffix(text, "\r") {
			text, eol = text[:len(text)-1], "\r\n"
		}
		lines = append(lines, line{text: text, eol: eol})
		s = s[i+1:]
	}
	return lines
}

func structural(ln line) document.Node {
	return document.Node{Kind: document.KindStructural, Raw: ln.text + ln.eol}
}

func startsMetaBlock(trimmed string) bool {
	for _, kw := range blockKeywords {
		if trimmed == kw || strings.HasPrefix(trimmed, kw+" ") || strings.HasPrefix(trimmed, kw+"\t") {
			return true
		}
	}
	return false
}

// isCueIdentifier reports whether line i introduces the cue whose time
// range follows on the next line. This covers SRT numeric indices and
// WebVTT named cue identifiers; both stay untranslated.
func isCueIdentifier(lines []line, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	next := strings.TrimSpace(lines[i+1].text)
	return strings.Contains(next, "-->") && timestampRe.MatchString(next)
}
