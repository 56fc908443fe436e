package pipeline

import (
	"regexp"
	"strings"
)

// urlSentenceReplacement stands in for any sentence that carried a URL; read
// aloud, a link is noise, so the whole sentence collapses to a short
// confirmation.
const urlSentenceReplacement = "task completed."

var (
	urlPattern       = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)
	parenthetical    = regexp.MustCompile(`\([^)]*\)`)
	bulletPrefix     = regexp.MustCompile(`(?m)^\s*(?:[-*•]+|\d+[.)])\s+`)
	emphasisMarks    = regexp.MustCompile("[*_`~#]+")
	whitespaceRun    = regexp.MustCompile(`\s+`)
	sentenceBoundary = regexp.MustCompile(`[.!?](?:\s|$)|\n`)
)

// Sanitize turns model output into text a speech synthesizer can read:
// sentences containing URLs are replaced wholesale, parentheticals are cut,
// list markers and markdown emphasis are stripped, and whitespace is
// collapsed. Sanitize is idempotent.
func Sanitize(text string) string {
	out := replaceURLSentences(text)
	out = parenthetical.ReplaceAllString(out, " ")
	out = bulletPrefix.ReplaceAllString(out, "")
	out = emphasisMarks.ReplaceAllString(out, "")
	out = whitespaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// replaceURLSentences substitutes every URL-bearing sentence with the fixed
// confirmation phrase. Sentences end at [.!?] followed by whitespace, at a
// newline, or at the end of input; dots inside a URL do not terminate a
// sentence because they are never followed by whitespace.
func replaceURLSentences(text string) string {
	if !urlPattern.MatchString(text) {
		return text
	}

	var b strings.Builder
	rest := text
	for rest != "" {
		loc := sentenceBoundary.FindStringIndex(rest)
		var sentence string
		if loc == nil {
			sentence, rest = rest, ""
		} else {
			sentence, rest = rest[:loc[1]], rest[loc[1]:]
		}
		if urlPattern.MatchString(sentence) {
			b.WriteString(urlSentenceReplacement + " ")
		} else {
			b.WriteString(sentence)
		}
	}
	return b.String()
}
