package mixing

import "github.com/RyanBlaney/sonido-deck/camelot"

// ChainOptions controls BuildChain
type ChainOptions struct {
	StartKey string         `json:"start_key,omitempty" yaml:"start_key,omitempty"` // Camelot code of the first track
	Strategy Strategy       `json:"strategy" yaml:"strategy"`
	Scoring  *ScoringConfig `json:"scoring,omitempty" yaml:"scoring,omitempty"`
}

// BuildChain orders tracks greedily so each next track is the best scoring
// transition from the previous one. Every input track appears exactly once.
//
// The chain starts on the first track of the StartKey group, else the most
// populous key group, else the first track. Candidates are visited by key group
// in order of first appearance, then input order, keyless tracks last; ties keep
// the first candidate visited.
func BuildChain[T Track](tracks []T, opts ChainOptions) []T {
	if len(tracks) == 0 {
		return []T{}
	}

	scorer := NewScorer(opts.Scoring)
	order, seed := chainOrder(tracks, opts.StartKey)

	used := make([]bool, len(tracks))
	chain := make([]T, 0, len(tracks))

	used[seed] = true
	chain = append(chain, tracks[seed])
	current := tracks[seed]

	for len(chain) < len(tracks) {
		best, bestScore := -1, 0
		for _, idx := range order {
			if used[idx] {
				continue
			}
			score := scorer.CompatibilityScore(current, tracks[idx], opts.Strategy)
			if best < 0 || score > bestScore {
				best, bestScore = idx, score
			}
		}

		used[best] = true
		chain = append(chain, tracks[best])
		current = tracks[best]
	}

	return chain
}

// chainOrder returns the candidate visiting order and the seed index
func chainOrder[T Track](tracks []T, startKey string) ([]int, int) {
	var codes []string
	groups := map[string][]int{}
	var keyless []int

	for i, t := range tracks {
		code := codeOf(t)
		if code == camelot.UnknownCode {
			keyless = append(keyless, i)
			continue
		}
		if _, ok := groups[code]; !ok {
			codes = append(codes, code)
		}
		groups[code] = append(groups[code], i)
	}

	order := make([]int, 0, len(tracks))
	for _, code := range codes {
		order = append(order, groups[code]...)
	}
	order = append(order, keyless...)

	if start, err := camelot.ParseCode(startKey); err == nil {
		if group, ok := groups[start.String()]; ok {
			return order, group[0]
		}
	}

	if len(codes) == 0 {
		return order, 0
	}

	popular := codes[0]
	for _, code := range codes[1:] {
		if len(groups[code]) > len(groups[popular]) {
			popular = code
		}
	}
	return order, groups[popular][0]
}
