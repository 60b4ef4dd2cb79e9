// Package placeholder protects inline markup embedded in caption text
// (HTML-style tags like <i> or <c.yellow>, ASS override blocks like
// {\an8}) during LLM translation by replacing it with numbered markers
// [PH0], [PH1], … that the model is instructed to preserve. After
// translation, Restore substitutes the markers back. Machine-translation
// APIs that handle markup themselves do not need this.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// HTML/VTT styling tags: opening, closing, and self-closing,
	// including classed VTT tags such as <c.yellow> and <v Speaker>.
	reTag = regexp.MustCompile(`<[^>]+>`)

	// ASS/SSA override blocks carried over into text-based subtitles.
	reOverride = regexp.MustCompile(`\{\\[^}]*\}`)

	// placeholder reference in translated text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces inline markup with numbered placeholders in the
// order it appears in text. It returns the modified text and the
// captured originals so Restore can put them back.
func Protect(text string) (string, []string) {
	var markers []string
	counter := 0

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", counter)
		markers = append(markers, match)
		counter++
		return id
	}

	text = reOverride.ReplaceAllStringFunc(text, replace)
	text = reTag.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore substitutes [PHn] markers in text back with the originals
// captured by Protect. Unrecognised indices leave the placeholder
// as-is; markers the model dropped simply stay absent.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// HasMarkup reports whether text contains markup Protect would capture.
func HasMarkup(text string) bool {
	return reTag.MatchString(text) || reOverride.MatchString(text)
}

// Strip removes all inline markup without keeping it, for callers that
// only need the spoken text.
func Strip(text string) string {
	text = reOverride.ReplaceAllString(text, "")
	text = reTag.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
