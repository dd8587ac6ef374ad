package chunker

import (
	"regexp"
	"strings"
)

// Segmenter produces an ordered sequence of sentence strings from raw text.
// Implementations must be deterministic for identical input.
type Segmenter interface {
	Segment(text string) []string
}

// RegexSegmenter is a lightweight sentence boundary detector for prose text.
// It splits after terminal punctuation followed by whitespace, keeping common
// abbreviations attached to their sentence.
type RegexSegmenter struct{}

// NewRegexSegmenter creates a RegexSegmenter.
func NewRegexSegmenter() *RegexSegmenter {
	return &RegexSegmenter{}
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+[)"']*\s+`)

// Abbreviations that end with a period but do not terminate a sentence.
var abbreviations = map[string]struct{}{
	"mr.": {}, "mrs.": {}, "ms.": {}, "dr.": {}, "prof.": {},
	"st.": {}, "vs.": {}, "etc.": {}, "e.g.": {}, "i.e.": {},
	"fig.": {}, "no.": {}, "vol.": {},
}

// Segment splits text into trimmed, non-empty sentences.
func (s *RegexSegmenter) Segment(text string) []string {
	var sentences []string
	rest := text

	for {
		loc := sentenceBoundary.FindStringIndex(rest)
		if loc == nil {
			break
		}

		head := rest[:loc[1]]
		for endsWithAbbreviation(head) {
			// Boundary is inside an abbreviation; look past it.
			next := sentenceBoundary.FindStringIndex(rest[loc[1]:])
			if next == nil {
				loc = nil
				break
			}
			loc[1] += next[1]
			head = rest[:loc[1]]
		}
		if loc == nil {
			break
		}

		if trimmed := strings.TrimSpace(head); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
		rest = rest[loc[1]:]
	}

	if trimmed := strings.TrimSpace(rest); trimmed != "" {
		sentences = append(sentences, trimmed)
	}

	return sentences
}

func endsWithAbbreviation(head string) bool {
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(fields[len(fields)-1])
	_, ok := abbreviations[last]
	return ok
}
