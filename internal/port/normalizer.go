package port

// Normalizer turns raw post text into a token sequence.
type Normalizer interface {
	Normalize(text string) []string

	// NormalizeAll normalizes each text, preserving order.
	NormalizeAll(texts []string) [][]string
}
