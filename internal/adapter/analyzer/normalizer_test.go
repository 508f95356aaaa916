package analyzer

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizer_CleanText(t *testing.T) {
	n := NewNormalizer()

	tokens := n.Normalize("hello world")
	expected := []string{"hello", "world"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestNormalizer_IdempotentOnCleanText(t *testing.T) {
	n := NewNormalizer()

	inputs := []string{
		"hello world",
		"I feel good",
		"buying rockets for 54.20 #blessed",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(strings.Join(once, " "))
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("normalize not idempotent for %q: %v then %v", input, once, twice)
		}
	}
}

func TestNormalizer_StripsMentionURLAndRetweet(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "mention and url",
			input:    "@elonmusk buying twitter for 54.20 #blessed http://t.co/x RT",
			expected: []string{"", "buying", "twitter", "for", "54.20", "#blessed", "rt"},
		},
		{
			name:     "leading retweet marker",
			input:    "RT @jack: Just setting up my twttr",
			expected: []string{":", "just", "setting", "up", "my", "twttr"},
		},
		{
			name:     "url in the middle",
			input:    "read this https://example.com/a?b=c now",
			expected: []string{"read", "this", "now"},
		},
		{
			name:     "url at end of string",
			input:    "Link https://t.co/abc",
			expected: []string{"link", ""},
		},
		{
			name:     "rt inside a word is kept",
			input:    "ART show",
			expected: []string{"art", "show"},
		},
		{
			name:     "mention only",
			input:    "@someone",
			expected: []string{""},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens := n.Normalize(tc.input)
			if !reflect.DeepEqual(tokens, tc.expected) {
				t.Errorf("Normalize(%q) = %q, expected %q", tc.input, tokens, tc.expected)
			}
		})
	}
}

func TestNormalizer_KeepsEmptyTokens(t *testing.T) {
	n := NewNormalizer()

	tokens := n.Normalize("a  b")
	expected := []string{"a", "", "b"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %q, got %q", expected, tokens)
	}
}

func TestNormalizer_EmptyInput(t *testing.T) {
	n := NewNormalizer()

	tokens := n.Normalize("")
	if len(tokens) != 1 || tokens[0] != "" {
		t.Errorf("expected a single empty token, got %q", tokens)
	}
}

func TestNormalizer_NormalizeAll(t *testing.T) {
	n := NewNormalizer()

	sentences := n.NormalizeAll([]string{"I feel good", "I feel great"})
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}
	if sentences[1][2] != "great" {
		t.Errorf("expected third token of second sentence to be 'great', got %q", sentences[1][2])
	}
}
