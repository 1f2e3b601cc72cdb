package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-deck/algorithms/common"
)

// BeatTracker places beats on an onset envelope by dynamic programming (Ellis 2007)
type BeatTracker struct {
	tightness float64
	trim      bool
}

// NewBeatTracker creates a tracker; tightness penalizes deviation from the tempo period
func NewBeatTracker(tightness float64, trim bool) *BeatTracker {
	if tightness <= 0 {
		tightness = 100
	}
	return &BeatTracker{tightness: tightness, trim: trim}
}

// Track returns ascending beat frame indices for an onset envelope at the given tempo.
// An envelope without any onset energy, or a non-positive tempo, yields no beats.
func (bt *BeatTracker) Track(onset []float64, bpm float64, frameRate float64) []int {
	if len(onset) == 0 || bpm <= 0 || frameRate <= 0 {
		return []int{}
	}

	std := common.StandardDeviation(onset)
	if std == 0 {
		return []int{}
	}

	normalized := make([]float64, len(onset))
	for i, v := range onset {
		normalized[i] = v / std
	}

	period := int(math.Round(60.0 * frameRate / bpm))
	if period < 1 {
		return []int{}
	}

	localScore := bt.localScore(normalized, period)
	backlink, cumScore := bt.dynamicProgram(localScore, period)

	last := lastBeat(cumScore)
	if last < 0 {
		return []int{}
	}

	beats := []int{last}
	for backlink[beats[len(beats)-1]] >= 0 {
		beats = append(beats, backlink[beats[len(beats)-1]])
	}

	// reverse to ascending order
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}

	return bt.trimBeats(localScore, beats)
}

// localScore smooths the envelope with a Gaussian spanning one period either side
func (bt *BeatTracker) localScore(onset []float64, period int) []float64 {
	kernel := make([]float64, 2*period+1)
	for i := range kernel {
		x := float64(i-period) * 32.0 / float64(period)
		kernel[i] = math.Exp(-0.5 * x * x)
	}

	score := make([]float64, len(onset))
	for t := range onset {
		sum := 0.0
		for k, w := range kernel {
			idx := t + k - period
			if idx >= 0 && idx < len(onset) {
				sum += onset[idx] * w
			}
		}
		score[t] = sum
	}
	return score
}

// dynamicProgram finds, for every frame, the best previous beat between 2 and 1/2 periods back
// under a log-squared tempo deviation penalty
func (bt *BeatTracker) dynamicProgram(localScore []float64, period int) ([]int, []float64) {
	backlink := make([]int, len(localScore))
	cumScore := make([]float64, len(localScore))

	windowStart := -2 * period
	windowEnd := -int(math.Round(float64(period) / 2))
	offsets := make([]int, 0, windowEnd-windowStart+1)
	for w := windowStart; w <= windowEnd; w++ {
		offsets = append(offsets, w)
	}

	txwt := make([]float64, len(offsets))
	for i, w := range offsets {
		l := math.Log(-float64(w) / float64(period))
		txwt[i] = -bt.tightness * l * l
	}

	maxScore := math.Inf(-1)
	for _, s := range localScore {
		maxScore = math.Max(maxScore, s)
	}

	firstBeat := true
	for i, score := range localScore {
		bestIdx := -1
		best := math.Inf(-1)
		for j, w := range offsets {
			candidate := txwt[j]
			if prev := i + w; prev >= 0 {
				candidate += cumScore[prev]
			}
			if candidate > best {
				best = candidate
				bestIdx = j
			}
		}

		cumScore[i] = score + best

		if firstBeat && score < 0.01*maxScore {
			backlink[i] = -1
		} else {
			backlink[i] = i + offsets[bestIdx]
			firstBeat = false
		}
	}

	return backlink, cumScore
}

// lastBeat picks the latest local maximum of the cumulative score above half its median peak
func lastBeat(cumScore []float64) int {
	maxes := common.LocalMax(cumScore)

	var peaks []float64
	for i, isMax := range maxes {
		if isMax {
			peaks = append(peaks, cumScore[i])
		}
	}
	if len(peaks) == 0 {
		return -1
	}
	median := common.Median(peaks)

	for i := len(cumScore) - 1; i >= 0; i-- {
		if maxes[i] && cumScore[i]*2 > median {
			return i
		}
	}
	return -1
}

// trimBeats drops weak leading and trailing beats, judged on the Hann-smoothed local score at each beat
func (bt *BeatTracker) trimBeats(localScore []float64, beats []int) []int {
	if len(beats) == 0 {
		return beats
	}

	hann := []float64{0, 0.5, 1, 0.5, 0}
	smooth := make([]float64, len(beats))
	for i := range beats {
		sum := 0.0
		for k, w := range hann {
			idx := i + k - 2
			if idx >= 0 && idx < len(beats) {
				sum += localScore[beats[idx]] * w
			}
		}
		smooth[i] = sum
	}

	threshold := 0.0
	if bt.trim {
		sumSquares := 0.0
		for _, s := range smooth {
			sumSquares += s * s
		}
		threshold = 0.5 * math.Sqrt(sumSquares/float64(len(smooth)))
	}

	first, last := -1, -1
	for i, s := range smooth {
		if s > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return []int{}
	}

	return beats[first:last]
}
