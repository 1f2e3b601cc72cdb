package mixing

import (
	"fmt"
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-deck/camelot"
)

// Status grades a validated track
type Status string

const (
	StatusExcellent  Status = "EXCELLENT"
	StatusGood       Status = "GOOD"
	StatusAcceptable Status = "ACCEPTABLE"
	StatusPoor       Status = "POOR"
	StatusReject     Status = "REJECT"
)

// ValidationCriteria holds the playlist quality thresholds
type ValidationCriteria struct {
	BPMMin        float64 `json:"bpm_min" yaml:"bpm_min"`
	BPMMax        float64 `json:"bpm_max" yaml:"bpm_max"`
	BPMOptimalMin float64 `json:"bpm_optimal_min" yaml:"bpm_optimal_min"`
	BPMOptimalMax float64 `json:"bpm_optimal_max" yaml:"bpm_optimal_max"`

	KeyConfidenceMin  float64 `json:"key_confidence_min" yaml:"key_confidence_min"`
	KeyConfidenceGood float64 `json:"key_confidence_good" yaml:"key_confidence_good"`

	EnergyMin     int `json:"energy_min" yaml:"energy_min"`
	EnergyMax     int `json:"energy_max" yaml:"energy_max"`
	EnergyJumpMax int `json:"energy_jump_max" yaml:"energy_jump_max"`

	DurationMin float64 `json:"duration_min" yaml:"duration_min"` // seconds
	DurationMax float64 `json:"duration_max" yaml:"duration_max"`

	MinKeyDiversity int `json:"min_key_diversity" yaml:"min_key_diversity"`
}

// DefaultValidationCriteria returns thresholds for a techno/house set
func DefaultValidationCriteria() ValidationCriteria {
	return ValidationCriteria{
		BPMMin:            115,
		BPMMax:            140,
		BPMOptimalMin:     120,
		BPMOptimalMax:     135,
		KeyConfidenceMin:  0.25,
		KeyConfidenceGood: 0.35,
		EnergyMin:         2,
		EnergyMax:         10,
		EnergyJumpMax:     3,
		DurationMin:       120,
		DurationMax:       600,
		MinKeyDiversity:   8,
	}
}

// TrackValidation is the verdict on one track
type TrackValidation struct {
	TrackID  string   `json:"track_id" yaml:"track_id"`
	Status   Status   `json:"status" yaml:"status"`
	Score    float64  `json:"score" yaml:"score"`
	Issues   []string `json:"issues" yaml:"issues"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// ValidateTrack scores a track from 100 down. Any issue rejects it.
func ValidateTrack(t TrackInfo, c ValidationCriteria) TrackValidation {
	v := TrackValidation{
		TrackID:  t.TrackID,
		Score:    100,
		Issues:   []string{},
		Warnings: []string{},
	}

	switch bpm := t.BPM; {
	case bpm <= 0:
		v.Issues = append(v.Issues, "Missing BPM")
		v.Score -= 50
	case bpm < c.BPMMin || bpm > c.BPMMax:
		v.Issues = append(v.Issues, fmt.Sprintf("BPM %.1f outside %.0f-%.0f", bpm, c.BPMMin, c.BPMMax))
		v.Score -= 30
	case bpm < c.BPMOptimalMin || bpm > c.BPMOptimalMax:
		v.Warnings = append(v.Warnings, fmt.Sprintf("BPM %.1f outside optimal %.0f-%.0f", bpm, c.BPMOptimalMin, c.BPMOptimalMax))
		v.Score -= 5
	}

	switch {
	case t.Key == "" || codeOf(t) == camelot.UnknownCode:
		v.Issues = append(v.Issues, "Missing key detection")
		v.Score -= 40
	case t.KeyConfidence < c.KeyConfidenceMin:
		v.Issues = append(v.Issues, fmt.Sprintf("Key confidence too low: %.2f", t.KeyConfidence))
		v.Score -= 25
	case t.KeyConfidence < c.KeyConfidenceGood:
		v.Warnings = append(v.Warnings, fmt.Sprintf("Key confidence below good: %.2f", t.KeyConfidence))
		v.Score -= 10
	}

	switch e := t.EnergyLevel; {
	case e == 0:
		v.Warnings = append(v.Warnings, "Missing energy level")
		v.Score -= 5
	case e < c.EnergyMin || e > c.EnergyMax:
		v.Warnings = append(v.Warnings, fmt.Sprintf("Energy %d outside %d-%d", e, c.EnergyMin, c.EnergyMax))
		v.Score -= 5
	}

	if d := t.DurationSeconds; d > 0 {
		switch {
		case d < c.DurationMin:
			v.Warnings = append(v.Warnings, fmt.Sprintf("Track too short: %.0fs", d))
			v.Score -= 10
		case d > c.DurationMax:
			v.Warnings = append(v.Warnings, fmt.Sprintf("Track too long: %.0fs", d))
			v.Score -= 5
		}
	}

	switch {
	case len(v.Issues) > 0:
		v.Status = StatusReject
	case v.Score >= 90:
		v.Status = StatusExcellent
	case v.Score >= 75:
		v.Status = StatusGood
	case v.Score >= 60:
		v.Status = StatusAcceptable
	default:
		v.Status = StatusPoor
	}

	return v
}

// PlaylistStats summarizes the validation of a whole playlist
type PlaylistStats struct {
	Total        int            `json:"total" yaml:"total"`
	ByStatus     map[Status]int `json:"by_status" yaml:"by_status"`
	PassRate     float64        `json:"pass_rate" yaml:"pass_rate"` // percent EXCELLENT, GOOD or ACCEPTABLE
	AverageScore float64        `json:"average_score" yaml:"average_score"`
}

// ValidatePlaylist validates every track and aggregates the verdicts
func ValidatePlaylist(tracks []TrackInfo, c ValidationCriteria) ([]TrackValidation, PlaylistStats) {
	results := make([]TrackValidation, 0, len(tracks))
	stats := PlaylistStats{
		Total:    len(tracks),
		ByStatus: map[Status]int{},
	}

	var scoreSum float64
	passed := 0
	for _, t := range tracks {
		v := ValidateTrack(t, c)
		results = append(results, v)
		stats.ByStatus[v.Status]++
		scoreSum += v.Score
		if v.Status == StatusExcellent || v.Status == StatusGood || v.Status == StatusAcceptable {
			passed++
		}
	}

	if len(tracks) > 0 {
		stats.PassRate = float64(passed) / float64(len(tracks)) * 100
		stats.AverageScore = scoreSum / float64(len(tracks))
	}

	return results, stats
}

// KeyCount is the number of tracks in one key
type KeyCount struct {
	Code  string `json:"code" yaml:"code"`
	Count int    `json:"count" yaml:"count"`
}

// Coverage describes how much of the Camelot wheel a playlist uses
type Coverage struct {
	TotalKeys       int        `json:"total_keys" yaml:"total_keys"`
	MissingKeys     []string   `json:"missing_keys" yaml:"missing_keys"`
	IsolatedKeys    []string   `json:"isolated_keys" yaml:"isolated_keys"` // present keys with no compatible neighbour present
	Distribution    []KeyCount `json:"distribution" yaml:"distribution"`   // most common first
	CoveragePercent float64    `json:"coverage_percent" yaml:"coverage_percent"`
}

// CamelotCoverage reports key diversity and harmonic connectivity. Codes are listed in wheel order.
func CamelotCoverage[T Track](tracks []T) Coverage {
	counts := presentCodes(tracks)

	cov := Coverage{
		MissingKeys:  []string{},
		IsolatedKeys: []string{},
		Distribution: []KeyCount{},
	}

	for _, c := range camelot.AllCodes() {
		code := c.String()
		n, ok := counts[code]
		if !ok {
			cov.MissingKeys = append(cov.MissingKeys, code)
			continue
		}

		cov.TotalKeys++
		cov.Distribution = append(cov.Distribution, KeyCount{Code: code, Count: n})

		isolated := true
		for _, other := range camelot.CompatibleCodes(code)[1:] {
			if _, ok := counts[other]; ok {
				isolated = false
				break
			}
		}
		if isolated {
			cov.IsolatedKeys = append(cov.IsolatedKeys, code)
		}
	}

	sort.SliceStable(cov.Distribution, func(i, j int) bool {
		return cov.Distribution[i].Count > cov.Distribution[j].Count
	})
	cov.CoveragePercent = float64(cov.TotalKeys) / 24 * 100

	return cov
}

// EnergyJump is a transition whose energy change exceeds the allowed jump
type EnergyJump struct {
	Position   int    `json:"position" yaml:"position"` // 1-indexed position of the outgoing track
	FromID     string `json:"from_id" yaml:"from_id"`
	ToID       string `json:"to_id" yaml:"to_id"`
	FromEnergy int    `json:"from_energy" yaml:"from_energy"`
	ToEnergy   int    `json:"to_energy" yaml:"to_energy"`
	Jump       int    `json:"jump" yaml:"jump"`
}

// EnergyFlowIssues lists consecutive pairs whose energy differs by more than maxJump.
// Tracks without an energy level count as 5.
func EnergyFlowIssues[T Track](tracks []T, maxJump int) []EnergyJump {
	issues := []EnergyJump{}
	for i := 0; i+1 < len(tracks); i++ {
		from, to := energyOrNeutral(tracks[i]), energyOrNeutral(tracks[i+1])
		jump := int(math.Abs(float64(to - from)))
		if jump > maxJump {
			issues = append(issues, EnergyJump{
				Position:   i + 1,
				FromID:     tracks[i].ID(),
				ToID:       tracks[i+1].ID(),
				FromEnergy: from,
				ToEnergy:   to,
				Jump:       jump,
			})
		}
	}
	return issues
}

// KeySuggestion is a missing key ranked by how many present keys it connects to
type KeySuggestion struct {
	Code           string   `json:"code" yaml:"code"`
	Key            string   `json:"key" yaml:"key"`
	CompatibleWith []string `json:"compatible_with" yaml:"compatible_with"`
}

// SuggestMissingKeys proposes up to targetCoverage minus the present key count
// missing keys, best connected first
func SuggestMissingKeys[T Track](tracks []T, targetCoverage int) []KeySuggestion {
	counts := presentCodes(tracks)
	limit := targetCoverage - len(counts)
	if limit <= 0 {
		return []KeySuggestion{}
	}

	suggestions := []KeySuggestion{}
	for _, c := range camelot.AllCodes() {
		code := c.String()
		if _, ok := counts[code]; ok {
			continue
		}

		with := []string{}
		for _, other := range camelot.CompatibleCodes(code)[1:] {
			if _, ok := counts[other]; ok {
				with = append(with, other)
			}
		}
		suggestions = append(suggestions, KeySuggestion{Code: code, Key: c.Key(), CompatibleWith: with})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return len(suggestions[i].CompatibleWith) > len(suggestions[j].CompatibleWith)
	})

	return suggestions[:min(limit, len(suggestions))]
}

// Rejection pairs a filtered-out track with its verdict
type Rejection struct {
	Track      TrackInfo       `json:"track" yaml:"track"`
	Validation TrackValidation `json:"validation" yaml:"validation"`
}

// FilterTracks keeps tracks scoring at least minScore; with rejectIssues any
// track with an issue is dropped as well
func FilterTracks(tracks []TrackInfo, c ValidationCriteria, minScore float64, rejectIssues bool) ([]TrackInfo, []Rejection) {
	kept := []TrackInfo{}
	rejected := []Rejection{}

	for _, t := range tracks {
		v := ValidateTrack(t, c)
		if (rejectIssues && len(v.Issues) > 0) || v.Score < minScore {
			rejected = append(rejected, Rejection{Track: t, Validation: v})
			continue
		}
		kept = append(kept, t)
	}

	return kept, rejected
}

func presentCodes[T Track](tracks []T) map[string]int {
	counts := map[string]int{}
	for _, t := range tracks {
		if code := codeOf(t); code != camelot.UnknownCode {
			counts[code]++
		}
	}
	return counts
}
