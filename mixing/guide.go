package mixing

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-deck/camelot"
)

// EnergyFlow describes how energy moves across a transition
type EnergyFlow string

const (
	EnergyBoost  EnergyFlow = "boost"
	EnergyDrop   EnergyFlow = "drop"
	EnergyStable EnergyFlow = "stable"
)

// Technique is a recommended way of mixing two tracks
type Technique string

const (
	TechniqueBassSwap Technique = "bass_swap"
	TechniqueEQ       Technique = "eq_mixing"
	TechniqueQuickCut Technique = "quick_cut_or_echo_out"
)

// neutralEnergy stands in for a track without an energy level
const neutralEnergy = 5

// Transition is the advice for playing To after From
type Transition struct {
	FromID      string           `json:"from_id" yaml:"from_id"`
	ToID        string           `json:"to_id" yaml:"to_id"`
	Key         camelot.Relation `json:"key" yaml:"key"`
	BPMDiff     float64          `json:"bpm_diff" yaml:"bpm_diff"`
	BPMAdvice   string           `json:"bpm_advice" yaml:"bpm_advice"`
	EnergyDelta float64          `json:"energy_delta" yaml:"energy_delta"`
	EnergyFlow  EnergyFlow       `json:"energy_flow" yaml:"energy_flow"`
	EnergyHint  string           `json:"energy_hint" yaml:"energy_hint"`
	Technique   Technique        `json:"technique" yaml:"technique"`
	Bars        string           `json:"bars" yaml:"bars"`
}

// AdviseTransition recommends how to mix from into to
func AdviseTransition(from, to Track) Transition {
	t := Transition{
		FromID: from.ID(),
		ToID:   to.ID(),
		Key:    camelot.Relationship(from.Camelot(), to.Camelot()),
	}

	// an unknown tempo on either side is treated as a match
	if from.Tempo() > 0 && to.Tempo() > 0 {
		t.BPMDiff = math.Abs(to.Tempo() - from.Tempo())
	}

	switch {
	case t.BPMDiff == 0:
		t.BPMAdvice = "Perfect BPM match: long blend (64+ bars)"
	case t.BPMDiff <= 2:
		t.BPMAdvice = fmt.Sprintf("Close BPM (Δ%.1f): standard blend (32 bars)", t.BPMDiff)
	case t.BPMDiff <= 4:
		t.BPMAdvice = fmt.Sprintf("BPM gap (Δ%.1f): short blend (16 bars) or pitch adjust", t.BPMDiff)
	default:
		t.BPMAdvice = fmt.Sprintf("Large BPM gap (Δ%.1f): pitch shift or hard cut", t.BPMDiff)
	}

	t.EnergyDelta = float64(energyOrNeutral(to) - energyOrNeutral(from))
	switch {
	case t.EnergyDelta > 1.5:
		t.EnergyFlow = EnergyBoost
		t.EnergyHint = fmt.Sprintf("Energy boost (+%.1f): bring in highs and mids of the incoming track gradually", t.EnergyDelta)
	case t.EnergyDelta < -1.5:
		t.EnergyFlow = EnergyDrop
		t.EnergyHint = fmt.Sprintf("Energy drop (%.1f): use a breakdown or an EQ cut", t.EnergyDelta)
	default:
		t.EnergyFlow = EnergyStable
		t.EnergyHint = fmt.Sprintf("Stable energy (Δ%.1f): smooth transition", t.EnergyDelta)
	}

	keyOK := t.Key.Quality == camelot.QualityPerfect || t.Key.Quality == camelot.QualityExcellent
	switch {
	case keyOK && t.BPMDiff <= 2:
		t.Technique, t.Bars = TechniqueBassSwap, "64-96 bars"
	case t.BPMDiff <= 4:
		t.Technique, t.Bars = TechniqueEQ, "32-48 bars"
	default:
		t.Technique, t.Bars = TechniqueQuickCut, "16 bars or less"
	}

	return t
}

// Guide advises every consecutive pair of an ordered track list
func Guide[T Track](tracks []T) []Transition {
	if len(tracks) < 2 {
		return []Transition{}
	}

	guide := make([]Transition, 0, len(tracks)-1)
	for i := 0; i+1 < len(tracks); i++ {
		guide = append(guide, AdviseTransition(tracks[i], tracks[i+1]))
	}
	return guide
}

func energyOrNeutral(t Track) int {
	if e := t.Energy(); e > 0 {
		return e
	}
	return neutralEnergy
}
