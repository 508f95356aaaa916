package analyzer

import (
	"regexp"
	"strings"
)

// Normalizer strips mentions, URLs and retweet markers from post text,
// lower-cases it and splits it on single spaces.
type Normalizer struct {
	replacements []*regexp.Regexp
}

// NewNormalizer creates a new Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		// Applied in order; each rule only deletes.
		replacements: []*regexp.Regexp{
			regexp.MustCompile(`@\w+`),
			regexp.MustCompile(`http\S*\s?`),
			regexp.MustCompile(`\bRT\s`),
		},
	}
}

// Normalize converts text into a token sequence.
// Consecutive spaces yield empty tokens; they are kept as-is.
func (n *Normalizer) Normalize(text string) []string {
	for _, re := range n.replacements {
		text = re.ReplaceAllString(text, "")
	}
	return strings.Split(strings.ToLower(text), " ")
}

// NormalizeAll normalizes each text in order.
func (n *Normalizer) NormalizeAll(texts []string) [][]string {
	sentences := make([][]string, len(texts))
	for i, text := range texts {
		sentences[i] = n.Normalize(text)
	}
	return sentences
}
