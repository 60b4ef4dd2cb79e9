// Package postprocess strips common LLM artifacts from translation
// output before it is substituted back into a document.
package postprocess

import (
	"regexp"
	"strings"
)

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag
// is missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>).*$`,
)

// Clean removes reasoning blocks and quote wrapping from a raw LLM
// response and returns the trimmed result.
func Clean(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return CleanItem(text)
}

// CleanItem removes quote wrapping from a single translated item.
// Models sometimes wrap output in quotes even when told not to; the
// wrapping is stripped only when the quotes enclose the whole string.
func CleanItem(text string) string {
	text = strings.TrimSpace(text)
	for _, q := range [][2]string{{`"`, `"`}, {"'", "'"}, {"«", "»"}, {"“", "”"}} {
		if len(text) > 1 && strings.HasPrefix(text, q[0]) && strings.HasSuffix(text, q[1]) {
			inner := strings.TrimSuffix(strings.TrimPrefix(text, q[0]), q[1])
			// Keep quotes that close and reopen inside the string.
			if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
				text = strings.TrimSpace(inner)
			}
		}
	}
	return text
}
