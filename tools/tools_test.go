package tools

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/library"
)

func newTestRegistry(t *testing.T) (*Registry, *library.Library) {
	t.Helper()
	lib := library.New(library.NewMemory(), nil)
	r, err := NewRegistry(lib, analysis.NewAnalyzer(nil, nil), nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r, lib
}

func seedTracks(t *testing.T, lib *library.Library) []*library.TrackRecord {
	t.Helper()
	tracks := []*library.TrackRecord{
		{Title: "Strobe", Artists: []string{"deadmau5"}, BPM: 128, Key: "Am", EnergyLevel: 7},
		{Title: "Ghosts", Artists: []string{"deadmau5"}, BPM: 126, Key: "Em", EnergyLevel: 7},
		{Title: "Opus", Artists: []string{"Eric Prydz"}, BPM: 126, Key: "C", EnergyLevel: 8},
		{Title: "Cola", Artists: []string{"CamelPhat"}, BPM: 122, Key: "Dm", EnergyLevel: 5},
		{Title: "Far", Artists: []string{"Someone"}, BPM: 140, Key: "F#", EnergyLevel: 9},
	}
	if err := lib.ImportTracks(context.Background(), tracks); err != nil {
		t.Fatalf("ImportTracks: %v", err)
	}
	return tracks
}

func call(t *testing.T, r *Registry, name string, args any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	out := r.Call(context.Background(), name, raw)

	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("%s returned invalid JSON %q: %v", name, out, err)
	}
	return m
}

func TestRegistryListsTools(t *testing.T) {
	r, _ := newTestRegistry(t)

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name)
		if tool.InputSchema == nil || tool.Description == "" {
			t.Errorf("tool %s lacks a schema or description", tool.Name)
		}
	}
	want := "search_tracks get_track find_compatible_tracks analyze_track create_set add_track_to_set get_set suggest_next_track build_chain library_stats"
	if strings.Join(names, " ") != want {
		t.Errorf("tools = %v", names)
	}

	tool, _ := r.Get("get_track")
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "track_id" {
		t.Errorf("get_track required = %v", tool.InputSchema.Required)
	}
	tool, _ = r.Get("suggest_next_track")
	if got := tool.InputSchema.Properties["energy_direction"].Enum; len(got) != 3 {
		t.Errorf("energy_direction enum = %v", got)
	}
}

func TestCallErrors(t *testing.T) {
	r, _ := newTestRegistry(t)

	tests := []struct {
		name, tool, args, wantSub string
	}{
		{"unknown tool", "play_track", `{}`, "unknown tool"},
		{"missing required", "get_track", `{}`, "invalid arguments"},
		{"wrong type", "search_tracks", `{"limit": "ten"}`, "invalid arguments"},
		{"bad direction", "suggest_next_track", `{"set_id": "x", "energy_direction": "sideways"}`, "invalid arguments"},
		{"missing track", "get_track", `{"track_id": "nope"}`, "not found"},
		{"missing file", "analyze_track", `{"file_path": "/no/such/file.mp3"}`, "file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Call(context.Background(), tt.tool, []byte(tt.args))
			var m map[string]string
			if err := json.Unmarshal([]byte(out), &m); err != nil {
				t.Fatalf("error output is not JSON: %q", out)
			}
			if !strings.Contains(m["error"], tt.wantSub) {
				t.Errorf("error = %q, want substring %q", m["error"], tt.wantSub)
			}
		})
	}
}

func TestSearchAndGetTrack(t *testing.T) {
	r, lib := newTestRegistry(t)
	tracks := seedTracks(t, lib)

	res := call(t, r, "search_tracks", map[string]any{"query": "deadmau5", "bpm_min": 127})
	if res["count"].(float64) != 1 {
		t.Fatalf("search result %v", res)
	}
	first := res["tracks"].([]any)[0].(map[string]any)
	if first["title"] != "Strobe" || first["camelot"] != "8A" || first["analyzed"] != false {
		t.Errorf("unexpected track view %v", first)
	}

	got := call(t, r, "get_track", map[string]any{"track_id": tracks[2].TrackID})
	if got["title"] != "Opus" || got["camelot"] != "8B" {
		t.Errorf("get_track = %v", got)
	}

	// empty arguments behave like {}
	out := r.Call(context.Background(), "search_tracks", nil)
	if strings.Contains(out, `"error"`) {
		t.Errorf("search with no arguments failed: %s", out)
	}
}

func TestFindCompatibleTracks(t *testing.T) {
	r, lib := newTestRegistry(t)
	tracks := seedTracks(t, lib)

	res := call(t, r, "find_compatible_tracks", map[string]any{"track_id": tracks[0].TrackID})
	rng := res["bpm_range"].([]any)
	if rng[0].(float64) != 121.6 || rng[1].(float64) != 134.4 {
		t.Errorf("bpm_range = %v", rng)
	}

	var titles []string
	for _, tr := range res["tracks"].([]any) {
		titles = append(titles, tr.(map[string]any)["title"].(string))
	}
	// Em is 9A (+1), C is 8B (relative), Dm is 7A (-1); F# is out of range
	if strings.Join(titles, ",") != "Ghosts,Opus,Cola" {
		t.Errorf("compatible = %v", titles)
	}
}

func TestSetWorkflow(t *testing.T) {
	r, lib := newTestRegistry(t)
	tracks := seedTracks(t, lib)

	created := call(t, r, "create_set", map[string]any{"name": "Friday", "description": "warm-up"})
	setID, _ := created["id"].(string)
	if setID == "" {
		t.Fatalf("create_set = %v", created)
	}

	added := call(t, r, "add_track_to_set", map[string]any{"set_id": setID, "track_id": tracks[0].TrackID})
	if added["position"].(float64) != 1 {
		t.Fatalf("add_track_to_set = %v", added)
	}
	added = call(t, r, "add_track_to_set", map[string]any{"set_id": setID, "track_id": tracks[3].TrackID, "position": 1})
	if added["position"].(float64) != 1 {
		t.Fatalf("insert at 1 = %v", added)
	}

	got := call(t, r, "get_set", map[string]any{"set_id": setID})
	if got["track_count"].(float64) != 2 {
		t.Fatalf("get_set = %v", got)
	}
	order := got["tracks"].([]any)
	if order[0].(map[string]any)["title"] != "Cola" || order[1].(map[string]any)["position"].(float64) != 2 {
		t.Errorf("set order = %v", order)
	}

	// last track is Strobe (8A, energy 7); maintain keeps 6..8 and compatible keys
	sug := call(t, r, "suggest_next_track", map[string]any{"set_id": setID})
	var titles []string
	for _, tr := range sug["suggestions"].([]any) {
		titles = append(titles, tr.(map[string]any)["title"].(string))
	}
	if strings.Join(titles, ",") != "Ghosts,Opus" {
		t.Errorf("suggestions = %v", titles)
	}

	empty := call(t, r, "create_set", map[string]any{"name": "Empty"})
	res := call(t, r, "suggest_next_track", map[string]any{"set_id": empty["id"]})
	if res["error"] != "set is empty" {
		t.Errorf("empty set suggestion = %v", res)
	}
}

func TestBuildChainAndStats(t *testing.T) {
	r, lib := newTestRegistry(t)
	seedTracks(t, lib)

	res := call(t, r, "build_chain", map[string]any{"start_key": "7A", "strategy": "progressive"})
	chain := res["tracks"].([]any)
	if len(chain) != 5 || chain[0].(map[string]any)["title"] != "Cola" {
		t.Errorf("chain = %v", chain)
	}
	if len(res["transitions"].([]any)) != 4 {
		t.Errorf("transitions = %v", res["transitions"])
	}

	stats := call(t, r, "library_stats", map[string]any{})
	if stats["total_tracks"].(float64) != 5 || stats["avg_energy"].(float64) != 7.2 {
		t.Errorf("stats = %v", stats)
	}
	if rng := stats["bpm_range"].([]any); rng[0].(float64) != 122 || rng[1].(float64) != 140 {
		t.Errorf("bpm_range = %v", rng)
	}
}

func TestAnalyzeTrack(t *testing.T) {
	r, _ := newTestRegistry(t)

	const rate = 22050
	samples := make([]int, 4*rate)
	for i := range samples {
		tt := float64(i) / rate
		v := 0.25 * (math.Sin(2*math.Pi*220*tt) + math.Sin(2*math.Pi*261.63*tt) + math.Sin(2*math.Pi*329.63*tt))
		samples[i] = int(v * 32767)
	}
	path := filepath.Join(t.TempDir(), "am.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{Format: &audio.Format{SampleRate: rate, NumChannels: 1}, Data: samples, SourceBitDepth: 16}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	for range 2 { // second call is served from the cache
		res := call(t, r, "analyze_track", map[string]any{"file_path": path})
		if res["file"] != path || res["camelot"] != "8A" || res["is_minor"] != true {
			t.Fatalf("analyze_track = %v", res)
		}
		if _, ok := res["bpm_confidence"]; !ok {
			t.Errorf("flat result lacks bpm_confidence: %v", res)
		}
	}

	res := call(t, r, "analyze_track", map[string]any{"file_path": strings.TrimSuffix(path, ".wav") + ".aiff"})
	if !strings.Contains(res["error"].(string), "not found") {
		t.Errorf("aiff = %v", res)
	}
}
