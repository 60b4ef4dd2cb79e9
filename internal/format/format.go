// Package format parses structured documents into the node sequence
// defined by package document. Each supported format implements Parser;
// the concrete parser is selected by declared format name or by file
// extension, never by sniffing content at runtime.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/valpere/subtran/internal/document"
)

// Parser converts raw file bytes into a Document. Implementations must
// guarantee that concatenating the Raw fields of the produced nodes, in
// order, reproduces the input bytes exactly.
type Parser interface {
	Name() string
	Parse(data []byte) (*document.Document, error)
}

// ParseError reports malformed input structure. It is fatal for the
// file: no translation call is made once parsing fails.
type ParseError struct {
	Format string
	Line   int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s parse error at line %d: %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ByName returns the parser registered under name ("subtitle" or
// "xliff").
func ByName(name string) (Parser, error) {
	switch name {
	case "subtitle", "srt", "vtt":
		return NewSubtitleParser(), nil
	case "xliff", "xlf":
		return NewXLIFFParser(), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", name)
	}
}

// ForFile selects a parser from the file extension.
func ForFile(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt", ".vtt", ".sub":
		return NewSubtitleParser(), nil
	case ".xlf", ".xliff", ".xml":
		return NewXLIFFParser(), nil
	default:
		return nil, fmt.Errorf("cannot determine format for %s; use --format", path)
	}
}
