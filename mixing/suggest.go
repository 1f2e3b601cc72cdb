package mixing

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/RyanBlaney/sonido-deck/camelot"
)

// ErrUnknownDirection is returned when an energy direction name is not recognized
var ErrUnknownDirection = errors.New("unknown energy direction")

// EnergyDirection steers SuggestNext
type EnergyDirection string

const (
	DirectionUp       EnergyDirection = "up"
	DirectionDown     EnergyDirection = "down"
	DirectionMaintain EnergyDirection = "maintain"
)

// ParseEnergyDirection parses a direction name; the empty string means maintain
func ParseEnergyDirection(s string) (EnergyDirection, error) {
	switch d := EnergyDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DirectionMaintain, nil
	case DirectionUp, DirectionDown, DirectionMaintain:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q (must be up, down or maintain)", ErrUnknownDirection, s)
	}
}

// Match is a candidate track ranked against a reference track
type Match[T Track] struct {
	Track T   `json:"track" yaml:"track"`
	Score int `json:"score" yaml:"score"`
	Rank  int `json:"rank" yaml:"rank"`
}

// CompatibleResult is the outcome of FindCompatible
type CompatibleResult[T Track] struct {
	Source            T          `json:"source_track" yaml:"source_track"`
	CompatibleCamelot []string   `json:"compatible_camelot" yaml:"compatible_camelot"`
	BPMRange          [2]float64 `json:"bpm_range" yaml:"bpm_range"`
	Matches           []Match[T] `json:"tracks" yaml:"tracks"`
}

// FindCompatible returns up to limit candidates whose key is compatible with
// source and whose tempo lies within bpmTolerance percent of it.
// The source itself is never returned. A limit <= 0 means no limit.
// A source without a tempo has no BPM window: candidates are matched on key
// alone and score no tempo points.
func FindCompatible[T Track](source T, candidates []T, bpmTolerance float64, limit int) CompatibleResult[T] {
	compatible := compatibleSet(source)
	knownTempo := source.Tempo() > 0
	var lo, hi float64
	if knownTempo {
		lo = source.Tempo() * (1 - bpmTolerance/100)
		hi = source.Tempo() * (1 + bpmTolerance/100)
	}

	res := CompatibleResult[T]{
		Source:            source,
		CompatibleCamelot: compatible,
		BPMRange:          [2]float64{round1(lo), round1(hi)},
	}

	var matches []Match[T]
	for _, c := range candidates {
		if c.ID() == source.ID() {
			continue
		}
		if bpm := c.Tempo(); knownTempo && (bpm < lo || bpm > hi) {
			continue
		}
		if !slices.Contains(compatible, codeOf(c)) {
			continue
		}
		matches = append(matches, Match[T]{Track: c, Score: CompatibilityScore(source, c, StrategyJourney)})
	}

	res.Matches = rank(matches, limit)
	return res
}

// Suggestion is the outcome of SuggestNext
type Suggestion[T Track] struct {
	Last      T               `json:"last_track" yaml:"last_track"`
	Direction EnergyDirection `json:"energy_direction" yaml:"energy_direction"`
	EnergyMin int             `json:"energy_min,omitempty" yaml:"energy_min,omitempty"`
	EnergyMax int             `json:"energy_max,omitempty" yaml:"energy_max,omitempty"`
	Matches   []Match[T]      `json:"suggestions" yaml:"suggestions"`
}

// SuggestNext proposes tracks to follow last: key compatible, not already
// played, and with energy moving in direction. Up keeps energy at least the
// last level, down at most, maintain within one level either way.
// A last track without an energy level disables the energy filter.
func SuggestNext[T Track](last T, candidates []T, played []string, direction EnergyDirection, limit int) Suggestion[T] {
	s := Suggestion[T]{Last: last, Direction: direction}

	if e := last.Energy(); e > 0 {
		switch direction {
		case DirectionUp:
			s.EnergyMin = e
		case DirectionDown:
			s.EnergyMax = e
		default:
			s.EnergyMin = max(1, e-1)
			s.EnergyMax = min(10, e+1)
		}
	}

	compatible := compatibleSet(last)
	var matches []Match[T]
	for _, c := range candidates {
		if c.ID() == last.ID() || slices.Contains(played, c.ID()) {
			continue
		}
		if !slices.Contains(compatible, codeOf(c)) {
			continue
		}
		if s.EnergyMin > 0 && c.Energy() < s.EnergyMin {
			continue
		}
		if s.EnergyMax > 0 && c.Energy() > s.EnergyMax {
			continue
		}
		matches = append(matches, Match[T]{Track: c, Score: CompatibilityScore(last, c, StrategyJourney)})
	}

	s.Matches = rank(matches, limit)
	return s
}

// compatibleSet is the list of codes t can mix into; empty when t has no key
func compatibleSet(t Track) []string {
	code := codeOf(t)
	if code == camelot.UnknownCode {
		return []string{}
	}
	return camelot.CompatibleCodes(code)
}

// rank sorts matches by score, keeping input order on ties, truncates to limit and numbers them from 1
func rank[T Track](matches []Match[T], limit int) []Match[T] {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	for i := range matches {
		matches[i].Rank = i + 1
	}
	if matches == nil {
		return []Match[T]{}
	}
	return matches
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
