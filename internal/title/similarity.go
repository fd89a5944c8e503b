package title

import "strings"

// Scorer judges how likely two normalized titles refer to the same game.
// Implementations are policy, not selection logic: the deterministic
// selection engine never consults a Scorer; only audit tooling does.
type Scorer interface {
	Score(a, b string) float64
}

// OverlapScorer scores titles by word overlap relative to the smaller title.
type OverlapScorer struct {
	// MinTokenLen drops very short words ("of", "no") before comparison.
	MinTokenLen int
}

// Score returns the fraction of the smaller title's words present in the
// larger one. 1.0 means full containment, 0 means no shared words.
func (s OverlapScorer) Score(a, b string) float64 {
	tokensA := s.tokenize(a)
	tokensB := s.tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	if len(tokensB) < len(tokensA) {
		tokensA, tokensB = tokensB, tokensA
	}
	larger := make(map[string]struct{}, len(tokensB))
	for _, token := range tokensB {
		larger[token] = struct{}{}
	}
	shared := 0
	for _, token := range tokensA {
		if _, ok := larger[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(tokensA))
}

func (s OverlapScorer) tokenize(text string) []string {
	minLen := s.MinTokenLen
	if minLen <= 0 {
		minLen = 2
	}
	raw := strings.Fields(text)
	tokens := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		if len(token) < minLen {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
