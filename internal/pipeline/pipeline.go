// Package pipeline sequences one file through parse, extraction,
// dispatch and reassembly. A parse failure aborts the file before any
// backend call; translation failures do not — the file completes under
// the configured fallback policy and the report says how much of it
// made it across.
package pipeline

import (
	"context"
	"fmt"

	"github.com/valpere/subtran/internal/assembler"
	"github.com/valpere/subtran/internal/dispatch"
	"github.com/valpere/subtran/internal/format"
	"github.com/valpere/subtran/internal/segment"
)

// Report summarizes one file's run.
type Report struct {
	Segments   int // translatable segments found
	Translated int // includes cache hits
	Failed     int
	Cached     int
}

// FullSuccess reports whether every segment was translated.
func (r Report) FullSuccess() bool { return r.Failed == 0 }

func (r Report) String() string {
	return fmt.Sprintf("%d segments: %d translated (%d from cache), %d failed",
		r.Segments, r.Translated, r.Cached, r.Failed)
}

// Pipeline runs files through a fixed parser, dispatcher and fallback
// policy. It holds no per-file state; the same Pipeline may process any
// number of files.
type Pipeline struct {
	parser     format.Parser
	dispatcher *dispatch.Dispatcher
	policy     assembler.Policy
}

func New(parser format.Parser, dispatcher *dispatch.Dispatcher, policy assembler.Policy) *Pipeline {
	return &Pipeline{
		parser:     parser,
		dispatcher: dispatcher,
		policy:     policy,
	}
}

// Run translates one file and returns the complete output bytes. The
// caller writes them out only after Run returns, so a cancelled or
// failed run leaves no partial file behind. A document with nothing to
// translate passes through unchanged with zero backend calls.
func (p *Pipeline) Run(ctx context.Context, data []byte, sourceLang, targetLang string) ([]byte, Report, error) {
	var report Report

	doc, err := p.parser.Parse(data)
	if err != nil {
		return nil, report, err
	}

	segs := segment.Extract(doc)
	report.Segments = len(segs)
	if len(segs) == 0 {
		return data, report, nil
	}

	results := p.dispatcher.Run(ctx, segs, sourceLang, targetLang)
	for _, res := range results {
		switch {
		case res.Failed():
			report.Failed++
		case res.Cached:
			report.Translated++
			report.Cached++
		default:
			report.Translated++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	out := assembler.Render(doc, results, p.policy)
	return out, report, nil
}
