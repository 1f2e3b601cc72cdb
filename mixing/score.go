package mixing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-deck/camelot"
)

// ErrUnknownStrategy is returned when a strategy name is not recognized
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy biases chain building
type Strategy string

const (
	// StrategyProgressive favours rising tempo
	StrategyProgressive Strategy = "progressive"
	// StrategyPlateau favours staying on the same tempo and key
	StrategyPlateau Strategy = "plateau"
	// StrategyJourney scores on compatibility alone
	StrategyJourney Strategy = "journey"
)

// Strategies lists every strategy in the order chain variations are generated
var Strategies = []Strategy{StrategyProgressive, StrategyPlateau, StrategyJourney}

// ParseStrategy parses a strategy name, case-insensitively
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyProgressive, StrategyPlateau, StrategyJourney:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q (must be progressive, plateau or journey)", ErrUnknownStrategy, s)
	}
}

// TempoTier awards Points when the BPM difference is at most MaxDiff
type TempoTier struct {
	MaxDiff float64 `json:"max_diff" yaml:"max_diff"`
	Points  int     `json:"points" yaml:"points"`
}

// ScoringConfig holds the transition scoring constants
type ScoringConfig struct {
	SameKey  int `json:"same_key" yaml:"same_key"`
	StepUp   int `json:"step_up" yaml:"step_up"`     // +1 on the same ring
	StepDown int `json:"step_down" yaml:"step_down"` // -1 on the same ring
	Relative int `json:"relative" yaml:"relative"`   // major/minor switch
	OtherKey int `json:"other_key" yaml:"other_key"`

	TempoTiers []TempoTier `json:"tempo_tiers" yaml:"tempo_tiers"` // ascending MaxDiff
	TempoFar   int         `json:"tempo_far" yaml:"tempo_far"`

	ProgressiveBonus int `json:"progressive_bonus" yaml:"progressive_bonus"`
	PlateauBonus     int `json:"plateau_bonus" yaml:"plateau_bonus"`
}

// DefaultScoringConfig returns a 0-100 scale: up to 60 for key, 40 for tempo
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SameKey:  60,
		StepUp:   50,
		StepDown: 40,
		Relative: 45,
		OtherKey: 10,
		TempoTiers: []TempoTier{
			{MaxDiff: 0, Points: 40},
			{MaxDiff: 2, Points: 35},
			{MaxDiff: 4, Points: 25},
			{MaxDiff: 6, Points: 15},
		},
		TempoFar:         5,
		ProgressiveBonus: 10,
		PlateauBonus:     15,
	}
}

// Validate checks that the tempo tiers are usable
func (c ScoringConfig) Validate() error {
	for i, tier := range c.TempoTiers {
		if tier.MaxDiff < 0 {
			return fmt.Errorf("tempo tier %d has a negative max diff", i)
		}
		if i > 0 && tier.MaxDiff <= c.TempoTiers[i-1].MaxDiff {
			return fmt.Errorf("tempo tiers must be in ascending order of max diff")
		}
	}
	return nil
}

// Scorer rates transitions between tracks
type Scorer struct {
	config ScoringConfig
}

// NewScorer creates a scorer; nil uses DefaultScoringConfig
func NewScorer(config *ScoringConfig) *Scorer {
	if config == nil {
		c := DefaultScoringConfig()
		config = &c
	}
	return &Scorer{config: *config}
}

// KeyScore rates moving from one Camelot code to another. Unknown codes score 0.
func (s *Scorer) KeyScore(from, to string) int {
	a, errA := camelot.ParseCode(from)
	b, errB := camelot.ParseCode(to)
	if errA != nil || errB != nil {
		return 0
	}

	switch b {
	case a:
		return s.config.SameKey
	case a.Next():
		return s.config.StepUp
	case a.Prev():
		return s.config.StepDown
	case a.Relative():
		return s.config.Relative
	default:
		return s.config.OtherKey
	}
}

// TempoScore rates the BPM difference of a transition. Unknown tempos (<= 0) score 0.
func (s *Scorer) TempoScore(from, to float64) int {
	if from <= 0 || to <= 0 {
		return 0
	}

	diff := math.Abs(to - from)
	for _, tier := range s.config.TempoTiers {
		if diff <= tier.MaxDiff {
			return tier.Points
		}
	}
	return s.config.TempoFar
}

// CompatibilityScore rates playing candidate after current under strategy
func (s *Scorer) CompatibilityScore(current, candidate Track, strategy Strategy) int {
	curCode, candCode := codeOf(current), codeOf(candidate)

	score := s.KeyScore(curCode, candCode) + s.TempoScore(current.Tempo(), candidate.Tempo())

	switch strategy {
	case StrategyProgressive:
		if candidate.Tempo() > current.Tempo() {
			score += s.config.ProgressiveBonus
		}
	case StrategyPlateau:
		if candidate.Tempo() == current.Tempo() && curCode != camelot.UnknownCode && candCode == curCode {
			score += s.config.PlateauBonus
		}
	}

	return score
}

var defaultScorer = NewScorer(nil)

// KeyScore rates a key transition with the default constants
func KeyScore(from, to string) int {
	return defaultScorer.KeyScore(from, to)
}

// TempoScore rates a tempo transition with the default constants
func TempoScore(from, to float64) int {
	return defaultScorer.TempoScore(from, to)
}

// CompatibilityScore rates a transition with the default constants
func CompatibilityScore(current, candidate Track, strategy Strategy) int {
	return defaultScorer.CompatibilityScore(current, candidate, strategy)
}
