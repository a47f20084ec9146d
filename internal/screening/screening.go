// Package screening runs submitted text through the automated content
// checks: a dictionary profanity filter and a lexicon sentiment scorer.
// Both are pure functions with no failure modes on non-empty input.
package screening

import (
	"strings"
	"unicode"
)

// Result is the outcome of screening one piece of text.
type Result struct {
	// Flagged is true when the profanity filter matched; flagged posts go
	// to the moderation queue instead of being published immediately.
	Flagged bool

	// Cleaned is the text with profane words masked. Equal to the input
	// when nothing matched.
	Cleaned string

	// Sentiment is the normalized score in [-1, 1].
	Sentiment float64
}

// Screen checks text for profanity and scores its sentiment. The raw
// lexicon score is normalized by raw/10 clamped to [-1, 1]; the divisor
// and clamp are fixed policy, not tunable per call.
func Screen(text string) Result {
	tokens := tokenize(text)

	flagged := false
	for _, tok := range tokens {
		if _, bad := profanity[tok.lower]; bad {
			flagged = true
			break
		}
	}

	cleaned := text
	if flagged {
		cleaned = mask(text, tokens)
	}

	raw := 0
	for _, tok := range tokens {
		raw += valence[tok.lower]
	}
	sentiment := float64(raw) / 10
	if sentiment > 1 {
		sentiment = 1
	}
	if sentiment < -1 {
		sentiment = -1
	}

	return Result{Flagged: flagged, Cleaned: cleaned, Sentiment: sentiment}
}

type token struct {
	start, end int // byte offsets into the original text
	lower      string
}

// tokenize splits text into letter/digit runs, recording offsets so mask
// can rewrite matched words in place.
func tokenize(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, token{start: start, end: i, lower: strings.ToLower(text[start:i])})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{start: start, end: len(text), lower: strings.ToLower(text[start:])})
	}
	return tokens
}

// mask replaces each profane word with a run of asterisks of equal length.
func mask(text string, tokens []token) string {
	out := []byte(text)
	for _, tok := range tokens {
		if _, bad := profanity[tok.lower]; !bad {
			continue
		}
		for i := tok.start; i < tok.end; i++ {
			out[i] = '*'
		}
	}
	return string(out)
}
