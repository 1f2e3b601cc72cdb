package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-deck/algorithms/chroma"
	"github.com/RyanBlaney/sonido-deck/algorithms/common"
)

// Krumhansl-Kessler probe-tone profiles with C as tonic
var (
	MajorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	MinorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// KeyCandidate is one of the 24 major/minor keys with its profile score
type KeyCandidate struct {
	Tonic   int     `json:"tonic"`
	IsMinor bool    `json:"is_minor"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
}

// KeyEstimationResult holds the best key and every candidate score
type KeyEstimationResult struct {
	Key          KeyCandidate       `json:"key"`
	Confidence   float64            `json:"confidence"`
	Correlations map[string]float64 `json:"correlations"`
	Candidates   []KeyCandidate     `json:"candidates"` // C, Cm, C#, C#m, ... B, Bm
}

// KeyEstimator scores a mean chroma vector against rotated key profiles (Krumhansl-Schmuckler)
type KeyEstimator struct {
	major [12][12]float64
	minor [12][12]float64
}

// NewKeyEstimator precomputes the 24 rotated, unit-length profiles
func NewKeyEstimator() *KeyEstimator {
	ke := &KeyEstimator{}
	for k := range 12 {
		ke.major[k] = rotateNormalized(MajorProfile, k)
		ke.minor[k] = rotateNormalized(MinorProfile, k)
	}
	return ke
}

// rotateNormalized shifts profile so its tonic lands on pitch class k, then scales it to unit length
func rotateNormalized(profile [12]float64, k int) [12]float64 {
	var rotated [12]float64
	for i := range 12 {
		rotated[i] = profile[(i-k+12)%12]
	}
	common.L2Normalize(rotated[:], 0)
	return rotated
}

// EstimateKey scores chromaVector against all 24 keys.
// The chroma is unit-normalized (plus 1e-6) first, so scores are cosine similarities.
// Ties keep the earlier candidate in C, Cm, C#, C#m, ... order.
func (ke *KeyEstimator) EstimateKey(chromaVector [12]float64) KeyEstimationResult {
	normalized := chromaVector
	common.L2Normalize(normalized[:], 1e-6)

	candidates := make([]KeyCandidate, 0, 24)
	correlations := make(map[string]float64, 24)

	best := -1
	for k := range 12 {
		for _, minor := range []bool{false, true} {
			profile := ke.major[k]
			if minor {
				profile = ke.minor[k]
			}

			c := KeyCandidate{
				Tonic:   k,
				IsMinor: minor,
				Name:    KeyName(k, minor),
				Score:   common.Dot(normalized[:], profile[:]),
			}
			candidates = append(candidates, c)
			correlations[c.Name] = c.Score

			if best < 0 || c.Score > candidates[best].Score {
				best = len(candidates) - 1
			}
		}
	}

	return KeyEstimationResult{
		Key:          candidates[best],
		Confidence:   confidence(candidates),
		Correlations: correlations,
		Candidates:   candidates,
	}
}

// confidence is the relative margin of the top score over the runner-up, doubled and clamped to [0,1]
func confidence(candidates []KeyCandidate) float64 {
	top, second := math.Inf(-1), math.Inf(-1)
	for _, c := range candidates {
		switch {
		case c.Score > top:
			second = top
			top = c.Score
		case c.Score > second:
			second = c.Score
		}
	}
	if math.IsInf(second, -1) {
		return 0
	}
	return common.Clamp(2*(top-second)/(top+1e-6), 0, 1)
}

// KeyName spells a key with sharps, minor keys suffixed with "m" ("C", "F#m")
func KeyName(tonic int, minor bool) string {
	name := chroma.Labels[((tonic%12)+12)%12]
	if minor {
		name += "m"
	}
	return name
}
