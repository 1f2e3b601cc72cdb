package mixing

import (
	"errors"
	"slices"
	"testing"

	"github.com/RyanBlaney/sonido-deck/camelot"
)

func track(id, code string, bpm float64, energy int) TrackInfo {
	return TrackInfo{TrackID: id, CamelotCode: code, Key: camelot.CodeToKey(code), BPM: bpm, EnergyLevel: energy}
}

func ids[T Track](tracks []T) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID()
	}
	return out
}

func TestKeyScore(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"8A", "8A", 60},
		{"8A", "9A", 50},
		{"8A", "7A", 40},
		{"8A", "8B", 45},
		{"8A", "3B", 10},
		{"12A", "1A", 50},
		{"1B", "12B", 40},
		{"", "8A", 0},
		{"8A", "13A", 0},
	}
	for _, tt := range tests {
		if got := KeyScore(tt.from, tt.to); got != tt.want {
			t.Errorf("KeyScore(%q, %q) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTempoScore(t *testing.T) {
	tests := []struct {
		from, to float64
		want     int
	}{
		{124, 124, 40},
		{124, 126, 35},
		{124, 127.5, 25},
		{124, 130, 15},
		{124, 131, 5},
		{0, 124, 0},
		{124, -1, 0},
	}
	for _, tt := range tests {
		if got := TempoScore(tt.from, tt.to); got != tt.want {
			t.Errorf("TempoScore(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCompatibilityScoreStrategies(t *testing.T) {
	cur := track("a", "8A", 124, 5)

	tests := []struct {
		name      string
		candidate TrackInfo
		strategy  Strategy
		want      int
	}{
		{"progressive faster", track("b", "8A", 125, 5), StrategyProgressive, 105},
		{"progressive slower", track("b", "8A", 123, 5), StrategyProgressive, 95},
		{"plateau same", track("b", "8A", 124, 5), StrategyPlateau, 115},
		{"plateau other key", track("b", "9A", 124, 5), StrategyPlateau, 90},
		{"journey", track("b", "8A", 124, 5), StrategyJourney, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompatibilityScore(cur, tt.candidate, tt.strategy); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}

	// keyless pairs never earn the plateau bonus
	a, b := track("a", "", 124, 5), track("b", "", 124, 5)
	if got := CompatibilityScore(a, b, StrategyPlateau); got != 40 {
		t.Errorf("keyless plateau score = %d, want 40", got)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(" Plateau "); err != nil || s != StrategyPlateau {
		t.Fatalf("ParseStrategy = %q, %v", s, err)
	}
	if _, err := ParseStrategy("random"); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestScoringConfigValidate(t *testing.T) {
	if err := DefaultScoringConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	c := DefaultScoringConfig()
	c.TempoTiers = []TempoTier{{MaxDiff: 4, Points: 10}, {MaxDiff: 2, Points: 20}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unordered tiers")
	}
}

func chainFixture() []TrackInfo {
	return []TrackInfo{
		track("a", "8A", 124, 5),
		track("b", "9A", 125, 6),
		track("c", "8B", 124, 6),
		track("d", "8A", 126, 7),
		track("e", "", 124, 5),
	}
}

func TestBuildChain(t *testing.T) {
	tests := []struct {
		name string
		opts ChainOptions
		want []string
	}{
		{"most populous seed", ChainOptions{Strategy: StrategyJourney}, []string{"a", "d", "b", "c", "e"}},
		{"start key", ChainOptions{StartKey: "8B", Strategy: StrategyJourney}, []string{"c", "a", "d", "b", "e"}},
		{"missing start key", ChainOptions{StartKey: "1A", Strategy: StrategyJourney}, []string{"a", "d", "b", "c", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(BuildChain(chainFixture(), tt.opts))
			if !slices.Equal(got, tt.want) {
				t.Errorf("chain = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildChainPlacesEveryTrackOnce(t *testing.T) {
	in := chainFixture()
	for _, s := range Strategies {
		got := ids(BuildChain(in, ChainOptions{Strategy: s}))
		if len(got) != len(in) {
			t.Fatalf("%s: chain has %d tracks, want %d", s, len(got), len(in))
		}
		sorted := slices.Clone(got)
		slices.Sort(sorted)
		if !slices.Equal(sorted, []string{"a", "b", "c", "d", "e"}) {
			t.Errorf("%s: chain %v does not hold each track once", s, got)
		}
		if got[len(got)-1] != "e" {
			t.Errorf("%s: keyless track should come last, got %v", s, got)
		}
	}
}

func TestBuildChainEdgeCases(t *testing.T) {
	if got := BuildChain([]TrackInfo{}, ChainOptions{}); len(got) != 0 {
		t.Fatalf("empty input gave %v", got)
	}

	keyless := []TrackInfo{track("x", "", 120, 5), track("y", "", 128, 5), track("z", "", 121, 5)}
	got := ids(BuildChain(keyless, ChainOptions{Strategy: StrategyJourney}))
	// x first, then the closest tempo
	if !slices.Equal(got, []string{"x", "z", "y"}) {
		t.Fatalf("keyless chain = %v", got)
	}
}

func TestAdviseTransition(t *testing.T) {
	tr := AdviseTransition(track("a", "8A", 124, 5), track("b", "9A", 125, 8))
	if tr.Key.Quality != camelot.QualityExcellent {
		t.Errorf("quality = %s, want excellent", tr.Key.Quality)
	}
	if tr.BPMDiff != 1 || tr.EnergyFlow != EnergyBoost || tr.Technique != TechniqueBassSwap {
		t.Errorf("unexpected advice %+v", tr)
	}

	tr = AdviseTransition(track("a", "8A", 124, 7), track("b", "3B", 130, 0))
	if tr.Key.Quality != camelot.QualityChallenging {
		t.Errorf("quality = %s, want challenging", tr.Key.Quality)
	}
	if tr.EnergyDelta != -2 || tr.EnergyFlow != EnergyDrop || tr.Technique != TechniqueQuickCut {
		t.Errorf("unexpected advice %+v", tr)
	}

	tr = AdviseTransition(track("a", "8A", 124, 5), track("b", "8A", 127, 5))
	if tr.EnergyFlow != EnergyStable || tr.Technique != TechniqueEQ || tr.Bars != "32-48 bars" {
		t.Errorf("unexpected advice %+v", tr)
	}
}

func TestGuide(t *testing.T) {
	if g := Guide([]TrackInfo{track("a", "8A", 124, 5)}); len(g) != 0 {
		t.Fatalf("single track guide = %v", g)
	}
	g := Guide(chainFixture())
	if len(g) != 4 {
		t.Fatalf("guide has %d transitions, want 4", len(g))
	}
	if g[0].FromID != "a" || g[0].ToID != "b" || g[3].ToID != "e" {
		t.Errorf("unexpected guide order %+v", g)
	}
	if g[3].Key.Quality != camelot.QualityUnknown {
		t.Errorf("keyless transition quality = %s", g[3].Key.Quality)
	}
}

func TestValidateTrack(t *testing.T) {
	base := TrackInfo{
		TrackID: "t", Key: "Am", CamelotCode: "8A", BPM: 126,
		KeyConfidence: 0.5, EnergyLevel: 6, DurationSeconds: 300,
	}
	c := DefaultValidationCriteria()

	tests := []struct {
		name       string
		mutate     func(*TrackInfo)
		wantStatus Status
		wantScore  float64
	}{
		{"clean", func(*TrackInfo) {}, StatusExcellent, 100},
		{"non optimal bpm", func(t *TrackInfo) { t.BPM = 118 }, StatusExcellent, 95},
		{"missing bpm", func(t *TrackInfo) { t.BPM = 0 }, StatusReject, 50},
		{"bpm out of range", func(t *TrackInfo) { t.BPM = 150 }, StatusReject, 70},
		{"missing key", func(t *TrackInfo) { t.Key, t.CamelotCode = "", "" }, StatusReject, 60},
		{"low confidence", func(t *TrackInfo) { t.KeyConfidence = 0.2 }, StatusReject, 75},
		{"fair confidence", func(t *TrackInfo) { t.BPM, t.KeyConfidence = 118, 0.3 }, StatusGood, 85},
		{"many warnings", func(t *TrackInfo) {
			t.BPM, t.KeyConfidence, t.EnergyLevel, t.DurationSeconds = 137, 0.3, 0, 100
		}, StatusAcceptable, 70},
		{"long and quiet", func(t *TrackInfo) { t.EnergyLevel, t.DurationSeconds = 1, 700 }, StatusExcellent, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := base
			tt.mutate(&tr)
			v := ValidateTrack(tr, c)
			if v.Status != tt.wantStatus || v.Score != tt.wantScore {
				t.Errorf("got %s/%v, want %s/%v (issues %v, warnings %v)",
					v.Status, v.Score, tt.wantStatus, tt.wantScore, v.Issues, v.Warnings)
			}
		})
	}
}

func TestValidatePlaylist(t *testing.T) {
	tracks := []TrackInfo{
		{TrackID: "a", Key: "Am", CamelotCode: "8A", BPM: 126, KeyConfidence: 0.5, EnergyLevel: 6},
		{TrackID: "b", Key: "Am", CamelotCode: "8A", BPM: 0, KeyConfidence: 0.5, EnergyLevel: 6},
	}
	results, stats := ValidatePlaylist(tracks, DefaultValidationCriteria())
	if len(results) != 2 || stats.Total != 2 {
		t.Fatalf("unexpected results %v / %+v", results, stats)
	}
	if stats.PassRate != 50 || stats.AverageScore != 75 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByStatus[StatusReject] != 1 || stats.ByStatus[StatusExcellent] != 1 {
		t.Errorf("by status = %v", stats.ByStatus)
	}
}

func TestCamelotCoverage(t *testing.T) {
	tracks := []TrackInfo{
		track("a", "8A", 124, 5), track("b", "8A", 124, 5),
		track("c", "9A", 124, 5), track("d", "3B", 124, 5), track("e", "", 124, 5),
	}
	cov := CamelotCoverage(tracks)
	if cov.TotalKeys != 3 || len(cov.MissingKeys) != 21 || cov.CoveragePercent != 12.5 {
		t.Errorf("coverage = %+v", cov)
	}
	if !slices.Equal(cov.IsolatedKeys, []string{"3B"}) {
		t.Errorf("isolated = %v, want [3B]", cov.IsolatedKeys)
	}
	if cov.Distribution[0] != (KeyCount{Code: "8A", Count: 2}) {
		t.Errorf("distribution = %v", cov.Distribution)
	}
}

func TestEnergyFlowIssues(t *testing.T) {
	tracks := []TrackInfo{
		track("a", "8A", 124, 3), track("b", "8A", 124, 7), track("c", "8A", 124, 6),
		track("d", "8A", 124, 0), track("e", "8A", 124, 10),
	}
	issues := EnergyFlowIssues(tracks, 3)
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %+v", len(issues), issues)
	}
	if issues[0].Position != 1 || issues[0].Jump != 4 {
		t.Errorf("first issue = %+v", issues[0])
	}
	if issues[1].Position != 4 || issues[1].FromEnergy != 5 || issues[1].Jump != 5 {
		t.Errorf("second issue = %+v", issues[1])
	}
}

func TestSuggestMissingKeys(t *testing.T) {
	tracks := []TrackInfo{track("a", "8A", 124, 5), track("b", "9A", 124, 5)}

	got := SuggestMissingKeys(tracks, 4)
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
	if got[0].Code != "7A" || got[1].Code != "8B" {
		t.Errorf("suggestions = %+v", got)
	}
	if got[0].Key != "Dm" || !slices.Equal(got[0].CompatibleWith, []string{"8A"}) {
		t.Errorf("first suggestion = %+v", got[0])
	}

	if got := SuggestMissingKeys(tracks, 2); len(got) != 0 {
		t.Errorf("target already met, got %v", got)
	}
}

func TestFilterTracks(t *testing.T) {
	tracks := []TrackInfo{
		{TrackID: "good", Key: "Am", CamelotCode: "8A", BPM: 126, KeyConfidence: 0.5, EnergyLevel: 6},
		{TrackID: "fair", Key: "Am", CamelotCode: "8A", BPM: 118, KeyConfidence: 0.3, EnergyLevel: 6},
		{TrackID: "bad", Key: "Am", CamelotCode: "8A", BPM: 150, KeyConfidence: 0.5, EnergyLevel: 6},
	}
	c := DefaultValidationCriteria()

	kept, rejected := FilterTracks(tracks, c, 60, true)
	if !slices.Equal(ids(kept), []string{"good", "fair"}) || len(rejected) != 1 {
		t.Errorf("kept %v, rejected %d", ids(kept), len(rejected))
	}

	kept, _ = FilterTracks(tracks, c, 90, false)
	if !slices.Equal(ids(kept), []string{"good"}) {
		t.Errorf("min score 90 kept %v", ids(kept))
	}
}

func TestFindCompatible(t *testing.T) {
	source := track("src", "8A", 120, 5)
	candidates := []TrackInfo{
		source,
		track("step", "7A", 125, 5),
		track("up", "9A", 123, 5),
		track("far", "8B", 130, 5),
		track("clash", "3B", 120, 5),
		track("keyless", "", 120, 5),
	}

	res := FindCompatible(source, candidates, 5, 10)
	if res.BPMRange != [2]float64{114, 126} {
		t.Errorf("bpm range = %v", res.BPMRange)
	}
	if !slices.Equal(res.CompatibleCamelot, []string{"8A", "9A", "7A", "8B"}) {
		t.Errorf("compatible = %v", res.CompatibleCamelot)
	}
	if len(res.Matches) != 2 || res.Matches[0].Track.TrackID != "up" || res.Matches[0].Rank != 1 {
		t.Fatalf("matches = %+v", res.Matches)
	}
	if res.Matches[0].Score != 75 || res.Matches[1].Score != 55 {
		t.Errorf("scores = %d, %d", res.Matches[0].Score, res.Matches[1].Score)
	}

	if res := FindCompatible(source, candidates, 5, 1); len(res.Matches) != 1 {
		t.Errorf("limit 1 gave %d matches", len(res.Matches))
	}
}

func TestFindCompatibleUnknownTempo(t *testing.T) {
	source := track("src", "8A", 0, 5)
	candidates := []TrackInfo{
		track("fast", "9A", 128, 5),
		track("untimed", "8A", 0, 5),
		track("slow", "7A", 90, 5),
		track("clash", "3B", 120, 5),
	}

	res := FindCompatible(source, candidates, 5, 10)
	if res.BPMRange != [2]float64{0, 0} {
		t.Errorf("bpm range = %v", res.BPMRange)
	}
	got := make([]string, len(res.Matches))
	for i, m := range res.Matches {
		got[i] = m.Track.TrackID
	}
	if want := []string{"untimed", "fast", "slow"}; !slices.Equal(got, want) {
		t.Fatalf("matches = %v, want %v", got, want)
	}

	want := map[string]int{"untimed": 60, "fast": 50, "slow": 40}
	for _, m := range res.Matches {
		if m.Score != want[m.Track.TrackID] {
			t.Errorf("%s score = %d, want key points only (%d)", m.Track.TrackID, m.Score, want[m.Track.TrackID])
		}
	}
}

func TestSuggestNext(t *testing.T) {
	last := track("last", "8A", 124, 6)
	candidates := []TrackInfo{
		track("played", "9A", 124, 7),
		track("calm", "8B", 124, 5),
		track("hot", "7A", 124, 8),
		track("clash", "3B", 124, 6),
	}
	played := []string{"played", "last"}

	tests := []struct {
		dir  EnergyDirection
		want []string
	}{
		{DirectionMaintain, []string{"calm"}},
		{DirectionUp, []string{"hot"}},
		{DirectionDown, []string{"calm"}},
	}
	for _, tt := range tests {
		s := SuggestNext(last, candidates, played, tt.dir, 5)
		var got []string
		for _, m := range s.Matches {
			got = append(got, m.Track.TrackID)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.dir, got, tt.want)
		}
	}

	s := SuggestNext(last, candidates, played, DirectionMaintain, 5)
	if s.EnergyMin != 5 || s.EnergyMax != 7 {
		t.Errorf("maintain window = %d..%d", s.EnergyMin, s.EnergyMax)
	}
}

func TestParseEnergyDirection(t *testing.T) {
	if d, err := ParseEnergyDirection(""); err != nil || d != DirectionMaintain {
		t.Fatalf("empty direction = %q, %v", d, err)
	}
	if d, err := ParseEnergyDirection("UP"); err != nil || d != DirectionUp {
		t.Fatalf("UP = %q, %v", d, err)
	}
	if _, err := ParseEnergyDirection("sideways"); !errors.Is(err, ErrUnknownDirection) {
		t.Fatalf("expected ErrUnknownDirection, got %v", err)
	}
}

func TestSetEditing(t *testing.T) {
	s := NewSet("Saturday")
	if s.ID == "" || s.TargetDurationMin != DefaultTargetDuration {
		t.Fatalf("unexpected new set %+v", s)
	}

	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.AddTrack(id, ""); err != nil {
			t.Fatalf("AddTrack(%s): %v", id, err)
		}
	}
	if s.Tracks[1].TransitionType != TransitionMix {
		t.Errorf("default transition = %q", s.Tracks[1].TransitionType)
	}

	removed, ok := s.RemoveTrack(2)
	if !ok || removed.TrackID != "b" {
		t.Fatalf("RemoveTrack(2) = %+v, %v", removed, ok)
	}
	if !slices.Equal(s.TrackIDs(), []string{"a", "c"}) || s.Tracks[1].Position != 2 {
		t.Fatalf("after remove %+v", s.Tracks)
	}
	if _, ok := s.RemoveTrack(9); ok {
		t.Error("RemoveTrack(9) should report false")
	}

	if err := s.ReorderTrack(1, 2); err != nil {
		t.Fatalf("ReorderTrack: %v", err)
	}
	if !slices.Equal(s.TrackIDs(), []string{"c", "a"}) {
		t.Fatalf("after reorder %v", s.TrackIDs())
	}
	if err := s.ReorderTrack(0, 1); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("expected ErrPositionOutOfRange, got %v", err)
	}

	if _, err := s.InsertTrack(1, "z", TransitionEcho); err != nil {
		t.Fatalf("InsertTrack: %v", err)
	}
	if !slices.Equal(s.TrackIDs(), []string{"z", "c", "a"}) || s.Tracks[2].Position != 3 {
		t.Fatalf("after insert %+v", s.Tracks)
	}
	if _, err := s.AddTrack("q", "scratch"); !errors.Is(err, ErrInvalidSet) {
		t.Errorf("expected ErrInvalidSet for unknown transition, got %v", err)
	}

	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSetValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Set)
	}{
		{"empty name", func(s *Set) { s.Name = " " }},
		{"short duration", func(s *Set) { s.TargetDurationMin = 4 }},
		{"long duration", func(s *Set) { s.TargetDurationMin = 481 }},
		{"bad style", func(s *Set) { s.Style = "ambient" }},
		{"energy curve", func(s *Set) { s.EnergyCurve = []int{3, 11} }},
		{"gap", func(s *Set) {
			s.Tracks = []SetTrack{{Position: 1, TrackID: "a", TransitionType: TransitionMix}, {Position: 3, TrackID: "b", TransitionType: TransitionMix}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet("Set")
			tt.mutate(s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSet) {
				t.Errorf("expected ErrInvalidSet, got %v", err)
			}
		})
	}
}
