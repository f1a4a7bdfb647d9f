package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/syllascan/syllascan/document"
)

// RiskLevel classifies originality risk from the maximum similarity score.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SimilarityConfig tunes the similarity engine.
type SimilarityConfig struct {
	// IncludeThreshold is the minimum cosine similarity (0-1) for a corpus
	// document to be reported as a match.
	IncludeThreshold float64

	// MaxMatches caps the number of reported matches.
	MaxMatches int

	// WindowTokens is the sliding-window width for excerpt extraction.
	WindowTokens int

	// MaxWindows bounds how many windows are examined per pair.
	MaxWindows int

	// MaxExcerpts caps the excerpts recorded per pair.
	MaxExcerpts int

	// ContextChars is the excerpt context length.
	ContextChars int
}

// DefaultSimilarityConfig returns the engine defaults.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		IncludeThreshold: 0.5,
		MaxMatches:       5,
		WindowTokens:     10,
		MaxWindows:       100,
		MaxExcerpts:      5,
		ContextChars:     200,
	}
}

// Validate checks the configuration.
func (c SimilarityConfig) Validate() error {
	if c.IncludeThreshold < 0 || c.IncludeThreshold >= 1 {
		return fmt.Errorf("IncludeThreshold must be in [0,1), got %v", c.IncludeThreshold)
	}
	if c.MaxMatches <= 0 {
		return fmt.Errorf("MaxMatches must be positive, got %d", c.MaxMatches)
	}
	if c.WindowTokens <= 0 {
		return fmt.Errorf("WindowTokens must be positive, got %d", c.WindowTokens)
	}
	return nil
}

// SimilarityResult is the outcome of comparing a document against the corpus.
type SimilarityResult struct {
	// RiskLevel is derived from the maximum similarity across matches.
	RiskLevel RiskLevel `json:"risk_level"`

	// Matches are ordered by descending score, truncated to MaxMatches.
	Matches []document.SimilarityMatch `json:"matches"`

	// Overall is the maximum similarity percentage, 0 when no match.
	Overall int `json:"overall"`
}

// Engine compares document fingerprints pairwise and extracts evidence
// excerpts. The corpus is read-only for a comparison pass, so concurrent
// analyses of different documents can share one snapshot.
type Engine struct {
	config SimilarityConfig
}

// NewEngine creates a similarity engine. A zero config uses defaults.
func NewEngine(cfg SimilarityConfig) (*Engine, error) {
	if cfg == (SimilarityConfig{}) {
		cfg = DefaultSimilarityConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: cfg}, nil
}

// FindSimilar compares the target against the corpus and classifies risk.
// Corpus documents that are not analyzed or have no fingerprint are skipped,
// as is the target itself.
func (e *Engine) FindSimilar(target *document.Document, corpus []*document.Document) SimilarityResult {
	var matches []document.SimilarityMatch

	for _, other := range corpus {
		if other.ID == target.ID {
			continue
		}
		if other.Status != document.StatusAnalyzed || len(other.Fingerprint) == 0 {
			continue
		}

		sim := Cosine(target.Fingerprint, other.Fingerprint)
		if sim <= e.config.IncludeThreshold {
			continue
		}

		matches = append(matches, document.SimilarityMatch{
			OtherDocumentID: other.ID,
			Score:           int(math.Round(sim * 100)),
			Excerpts:        e.extractExcerpts(target.Text, other.Text),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > e.config.MaxMatches {
		matches = matches[:e.config.MaxMatches]
	}

	result := SimilarityResult{RiskLevel: RiskNone, Matches: matches}
	if len(matches) > 0 {
		result.Overall = matches[0].Score
		result.RiskLevel = RiskForScore(result.Overall)
	}
	return result
}

// RiskForScore maps a similarity percentage to a risk level.
func RiskForScore(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskHigh
	case score >= 60:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Cosine computes the cosine similarity of two vectors. Fingerprints are
// stored normalized, so this reduces to a dot product. Mismatched lengths
// (a fingerprint from an incompatible vocabulary size) and zero vectors
// score 0 rather than raising.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// extractExcerpts slides a token window across the target text and records
// passages that also appear verbatim in the other document.
func (e *Engine) extractExcerpts(targetText, otherText string) []document.Excerpt {
	tokens := Tokenize(targetText)
	if len(tokens) < e.config.WindowTokens {
		return nil
	}

	lowerTarget := strings.ToLower(targetText)
	lowerOther := strings.ToLower(otherText)

	windows := len(tokens) - e.config.WindowTokens + 1
	if windows > e.config.MaxWindows {
		windows = e.config.MaxWindows
	}

	var excerpts []document.Excerpt
	seen := make(map[int]bool)

	for i := 0; i < windows && len(excerpts) < e.config.MaxExcerpts; i++ {
		phrase := strings.Join(tokens[i:i+e.config.WindowTokens], " ")
		if !strings.Contains(lowerOther, phrase) {
			continue
		}

		pos := strings.Index(lowerTarget, phrase)
		if pos < 0 || seen[pos] {
			continue
		}
		seen[pos] = true

		end := pos + e.config.ContextChars
		if end > len(targetText) {
			end = len(targetText)
		}
		excerpts = append(excerpts, document.Excerpt{
			Text:     targetText[pos:end],
			Position: pos,
		})
	}

	return excerpts
}
