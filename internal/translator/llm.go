package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valpere/subtran/internal/placeholder"
	"github.com/valpere/subtran/internal/postprocess"
)

// LLM backends (ollama, openrouter) translate a batch by sending the
// segment texts as a JSON array and asking for a JSON array back. The
// array protocol keeps item boundaries unambiguous even when segments
// contain newlines, and the index correspondence survives the round
// trip without relying on the model counting lines correctly.

func buildBatchSystemPrompt(sourceLang, targetLang string, n int) string {
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the detected language"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional subtitle and localization translator. "+
		"Translate each string in the JSON array from %s to %s.\n", sourceLang, targetLang)
	fmt.Fprintf(&sb, "Respond with ONLY a JSON array of exactly %d translated strings, in the same order.\n", n)
	sb.WriteString("Preserve any [PHn] markers exactly as they appear; they stand for formatting tags.\n")
	sb.WriteString("No explanations, no numbering outside the array, no extra keys.")
	return sb.String()
}

// protectBatch shields inline markup in every text with placeholder
// markers. The returned marker table is indexed like texts.
func protectBatch(texts []string) ([]string, [][]string) {
	protected := make([]string, len(texts))
	markers := make([][]string, len(texts))
	for i, t := range texts {
		protected[i], markers[i] = placeholder.Protect(t)
	}
	return protected, markers
}

// decodeBatch extracts the JSON array from a raw model response and
// checks it has exactly n items.
func decodeBatch(response string, n int) ([]string, error) {
	cleaned := postprocess.Clean(response)

	open := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if open == -1 || end == -1 || end < open {
		return nil, fmt.Errorf("response contains no JSON array")
	}

	var items []string
	if err := json.Unmarshal([]byte(cleaned[open:end+1]), &items); err != nil {
		return nil, fmt.Errorf("failed to decode translation array: %v", err)
	}

	if len(items) != n {
		return nil, fmt.Errorf("expected %d translations, got %d", n, len(items))
	}
	return items, nil
}

// restoreBatch cleans each translated item and puts protected markup
// back in place.
func restoreBatch(items []string, markers [][]string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = placeholder.Restore(postprocess.CleanItem(item), markers[i])
	}
	return out
}
