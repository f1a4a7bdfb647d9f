// Package analysis provides the originality pipeline: term-frequency
// fingerprinting, cosine-similarity comparison against the stored corpus,
// and LLM-seeded improvement recommendations.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/syllascan/syllascan/document"
)

// VectorSize is the fixed fingerprint length. Every fingerprint holds the
// raw counts of the top VectorSize stems, L2-normalized and zero-padded.
const VectorSize = 50

// minTokenLength drops short function words before counting.
const minTokenLength = 3

// Vectorize turns raw document text into a fixed-length numeric fingerprint.
// The function is pure: lower-case, strip punctuation, drop short tokens,
// stem, count, take the top stems by frequency (ties broken by first
// occurrence for determinism), then L2-normalize.
func Vectorize(text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("vectorize: empty text: %w", document.ErrInvalidInput)
	}

	tokens := Tokenize(text)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, tok := range tokens {
		stem := Stem(tok)
		if stem == "" {
			continue
		}
		if _, ok := counts[stem]; !ok {
			firstSeen[stem] = i
		}
		counts[stem]++
	}

	stems := make([]string, 0, len(counts))
	for stem := range counts {
		stems = append(stems, stem)
	}
	sortStems(stems, counts, firstSeen)

	if len(stems) > VectorSize {
		stems = stems[:VectorSize]
	}

	vector := make([]float64, VectorSize)
	for i, stem := range stems {
		vector[i] = float64(counts[stem])
	}

	normalize(vector)
	return vector, nil
}

// Tokenize lower-cases the text, strips punctuation and returns the word
// tokens longer than two characters, in document order.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Stem applies a deterministic suffix-stripping stem. It is intentionally
// crude: the fingerprint only needs stable term folding, not linguistic
// accuracy.
func Stem(token string) string {
	switch {
	case strings.HasSuffix(token, "sses"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "i"
	case strings.HasSuffix(token, "ing") && len(token) > 5:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "edly") && len(token) > 6:
		return token[:len(token)-4]
	case strings.HasSuffix(token, "ed") && len(token) > 4:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ly") && len(token) > 4:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"):
		return token
	case strings.HasSuffix(token, "s") && len(token) > 3:
		return token[:len(token)-1]
	default:
		return token
	}
}

// sortStems orders stems by descending frequency, breaking ties by first
// occurrence so the fingerprint is deterministic for a given text.
func sortStems(stems []string, counts, firstSeen map[string]int) {
	sort.Slice(stems, func(i, j int) bool {
		a, b := stems[i], stems[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return firstSeen[a] < firstSeen[b]
	})
}

// normalize divides the vector by its Euclidean norm in place. The zero
// vector represents a degenerate document and is left unchanged.
func normalize(vector []float64) {
	var sum float64
	for _, v := range vector {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vector {
		vector[i] /= norm
	}
}
