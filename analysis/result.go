package analysis

// TempoResult holds the global tempo and beat grid of a signal
type TempoResult struct {
	BPM           float64 `json:"bpm"`
	Confidence    float64 `json:"confidence"`
	BeatPositions []int   `json:"beat_positions"` // sample indices, ascending
}

// KeyResult holds the estimated key and the score of every candidate
type KeyResult struct {
	Tonic        string             `json:"tonic"`
	IsMinor      bool               `json:"is_minor"`
	Key          string             `json:"key"`
	Camelot      string             `json:"camelot"`
	Confidence   float64            `json:"confidence"`
	Correlations map[string]float64 `json:"correlations"`
}

// EnergyResult holds the 1-10 energy level and the features it came from
type EnergyResult struct {
	Level              int     `json:"level"`
	LoudnessDB         float64 `json:"loudness_db"`
	SpectralCentroidHz float64 `json:"spectral_centroid_hz"`
	SpectralRolloffHz  float64 `json:"spectral_rolloff_hz"`
	ZeroCrossingRate   float64 `json:"zero_crossing_rate"`
	RawScore           float64 `json:"raw_score"`
}

// AnalysisResult is the full descriptor set of one signal
type AnalysisResult struct {
	Tempo           TempoResult  `json:"tempo"`
	Key             KeyResult    `json:"key"`
	Energy          EnergyResult `json:"energy"`
	DurationSeconds float64      `json:"duration_seconds"`
	SampleRate      int          `json:"sample_rate"`

	// TrackDurationSeconds is the length of the whole source, 0 when unknown.
	// DurationSeconds only covers the analyzed window.
	TrackDurationSeconds float64 `json:"track_duration_seconds"`
}

// Summary is the flat payload handed to HTTP, tool and CLI callers
type Summary struct {
	BPM             float64 `json:"bpm" yaml:"bpm"`
	BPMConfidence   float64 `json:"bpm_confidence" yaml:"bpm_confidence"`
	Key             string  `json:"key" yaml:"key"`
	Camelot         string  `json:"camelot" yaml:"camelot"`
	IsMinor         bool    `json:"is_minor" yaml:"is_minor"`
	KeyConfidence   float64 `json:"key_confidence" yaml:"key_confidence"`
	Energy          int     `json:"energy" yaml:"energy"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`

	TrackDurationSeconds float64 `json:"track_duration_seconds,omitempty" yaml:"track_duration_seconds,omitempty"`
}

// Summary flattens the result
func (r *AnalysisResult) Summary() Summary {
	return Summary{
		BPM:             r.Tempo.BPM,
		BPMConfidence:   r.Tempo.Confidence,
		Key:             r.Key.Key,
		Camelot:         r.Key.Camelot,
		IsMinor:         r.Key.IsMinor,
		KeyConfidence:   r.Key.Confidence,
		Energy:          r.Energy.Level,
		DurationSeconds: r.DurationSeconds,

		TrackDurationSeconds: r.TrackDurationSeconds,
	}
}
