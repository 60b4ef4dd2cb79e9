package segment_test

import (
	"testing"

	"github.com/valpere/subtran/internal/document"
	"github.com/valpere/subtran/internal/segment"
)

func textNode(token document.PositionToken, text string) document.Node {
	return document.Node{Kind: document.KindText, Raw: text + "\n", Text: text, Suffix: "\n", Token: token}
}

func structuralNode(raw string) document.Node {
	return document.Node{Kind: document.KindStructural, Raw: raw}
}

func TestExtract_SkipsStructuralAndEmpty(t *testing.T) {
	doc := &document.Document{
		Format: "subtitle",
		Nodes: []document.Node{
			structuralNode("1\n"),
			structuralNode("00:00:01,000 --> 00:00:03,000\n"),
			textNode(0, "Hello world"),
			textNode(1, ""),
			textNode(2, "   \t"),
			structuralNode("\n"),
			textNode(3, "Second cue"),
		},
	}

	segs := segment.Extract(doc)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].SourceText != "Hello world" || segs[1].SourceText != "Second cue" {
		t.Errorf("unexpected segment texts: %+v", segs)
	}
}

func TestExtract_TokensUnique(t *testing.T) {
	doc := &document.Document{
		Nodes: []document.Node{
			textNode(0, "one"),
			textNode(1, "two"),
			textNode(2, "three"),
		},
	}

	segs := segment.Extract(doc)
	seen := make(map[document.PositionToken]bool)
	for _, s := range segs {
		if seen[s.Token] {
			t.Errorf("duplicate token %d", s.Token)
		}
		seen[s.Token] = true
	}
	if len(segs) != 3 {
		t.Errorf("expected one segment per non-empty text node, got %d", len(segs))
	}
}

func TestExtract_Deterministic(t *testing.T) {
	doc := &document.Document{
		Nodes: []document.Node{
			textNode(0, "alpha"),
			textNode(1, "beta"),
		},
	}

	first := segment.Extract(doc)
	second := segment.Extract(doc)
	if len(first) != len(second) {
		t.Fatalf("extraction not deterministic: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("segment %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGroup_CountBound(t *testing.T) {
	segs := []segment.Segment{
		{Token: 0, SourceText: "a"},
		{Token: 1, SourceText: "b"},
		{Token: 2, SourceText: "c"},
		{Token: 3, SourceText: "d"},
		{Token: 4, SourceText: "e"},
	}

	batches := segment.Group(segs, 2, 0)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[1]) != 2 || len(batches[2]) != 1 {
		t.Errorf("unexpected batch sizes: %d %d %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
}

func TestGroup_CharBound(t *testing.T) {
	segs := []segment.Segment{
		{Token: 0, SourceText: "aaaa"},
		{Token: 1, SourceText: "bbbb"},
		{Token: 2, SourceText: "cc"},
	}

	batches := segment.Group(segs, 0, 6)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d: %v", len(batches), batches)
	}
	if len(batches[0]) != 1 || len(batches[1]) != 2 {
		t.Errorf("unexpected batch composition: %v", batches)
	}
}

func TestGroup_OversizedSegmentAlone(t *testing.T) {
	segs := []segment.Segment{
		{Token: 0, SourceText: "this text is longer than the char limit"},
		{Token: 1, SourceText: "short"},
	}

	batches := segment.Group(segs, 0, 10)
	if len(batches) != 2 {
		t.Fatalf("expected oversized segment in its own batch, got %d batches", len(batches))
	}
	if len(batches[0]) != 1 {
		t.Errorf("oversized segment must not share a batch")
	}
}

func TestGroup_PreservesOrderAndCompleteness(t *testing.T) {
	var segs []segment.Segment
	for i := 0; i < 23; i++ {
		segs = append(segs, segment.Segment{Token: document.PositionToken(i), SourceText: "text"})
	}

	batches := segment.Group(segs, 5, 0)
	var next document.PositionToken
	for _, b := range batches {
		for _, s := range b {
			if s.Token != next {
				t.Fatalf("expected token %d, got %d", next, s.Token)
			}
			next++
		}
	}
	if int(next) != len(segs) {
		t.Errorf("grouping lost segments: %d of %d", next, len(segs))
	}
}

func TestGroup_Empty(t *testing.T) {
	if batches := segment.Group(nil, 10, 100); batches != nil {
		t.Errorf("expected nil for no segments, got %v", batches)
	}
}
