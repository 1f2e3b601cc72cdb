package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-deck/playlist"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SONIDO_LIBRARY_DIR", filepath.Join(t.TempDir(), "library"))

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	return v
}

func writeSidecar(t *testing.T, dir string) string {
	t.Helper()
	track := func(artist, title, key, code string, bpm float64, energy int) playlist.Track {
		return playlist.Track{
			Artist:        artist,
			Title:         title,
			Filename:      title + ".mp3",
			DurationMs:    300_000,
			BPM:           bpm,
			Key:           key,
			CamelotCode:   code,
			KeyConfidence: 0.5,
			EnergyLevel:   energy,
		}
	}
	s := &playlist.Sidecar{
		Title: "Friday",
		Tracks: []playlist.Track{
			track("deadmau5", "Strobe", "Am", "8A", 128, 7),
			track("deadmau5", "Ghosts", "Em", "9A", 126, 7),
			track("Eric Prydz", "Opus", "C", "8B", 126, 8),
			track("CamelPhat", "Cola", "Dm", "7A", 122, 5),
			track("Someone", "Far", "F#", "2B", 150, 9),
		},
	}
	playlist.Renumber(s.Tracks)

	path := filepath.Join(dir, SidecarName)
	if err := playlist.WriteSidecar(path, s); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeChordWAV(t *testing.T, path string) {
	t.Helper()
	writeChordWAVAt(t, path, 22050, 4)
}

// writeChordWAVAt writes an A minor triad of the given length and rate
func writeChordWAVAt(t *testing.T, path string, rate, seconds int) {
	t.Helper()
	samples := make([]int, seconds*rate)
	for i := range samples {
		tt := float64(i) / float64(rate)
		v := 0.25 * (math.Sin(2*math.Pi*220*tt) + math.Sin(2*math.Pi*261.63*tt) + math.Sin(2*math.Pi*329.63*tt))
		samples[i] = int(v * 32767)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{Format: &audio.Format{SampleRate: rate, NumChannels: 1}, Data: samples, SourceBitDepth: 16}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		arg  string
		want []string
	}{
		{"8A", []string{"8A", "9A", "7A", "8B"}},
		{"A minor", []string{"8A", "9A", "7A", "8B"}},
		{"12b", []string{"12B", "1B", "11B", "12A"}},
	}
	for _, tt := range tests {
		out, err := run(t, "compatible", tt.arg, "--json")
		if err != nil {
			t.Fatalf("compatible %q: %v", tt.arg, err)
		}
		keys := decode[[]compatibleKey](t, out)
		var codes []string
		for _, k := range keys {
			codes = append(codes, k.Code)
		}
		if strings.Join(codes, ",") != strings.Join(tt.want, ",") {
			t.Errorf("compatible %q = %v, want %v", tt.arg, codes, tt.want)
		}
	}

	if _, err := run(t, "compatible", "H#"); err == nil {
		t.Error("expected an error for an unknown key")
	}

	out, err := run(t, "compatible", "8A", "--plain")
	if err != nil || !strings.Contains(out, "Am") {
		t.Errorf("plain output = %q, err %v", out, err)
	}
}

func TestChain(t *testing.T) {
	dir := t.TempDir()
	sidecar := writeSidecar(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "chain", sidecar, "--out", outDir, "--start-key", "7A", "--json")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}

	variations := decode[[]variation](t, out)
	if len(variations) != 3 {
		t.Fatalf("got %d variations, want 3", len(variations))
	}
	for _, v := range variations {
		if v.Tracks != 5 || v.Opening != "7A" {
			t.Errorf("variation %s: %d tracks opening %s", v.Name, v.Tracks, v.Opening)
		}
		if _, err := os.Stat(v.Playlist); err != nil {
			t.Errorf("playlist %s not written: %v", v.Playlist, err)
		}
		txt := filepath.Join(outDir, v.Name, v.Name+"_tracklist.txt")
		if _, err := os.Stat(txt); err != nil {
			t.Errorf("tracklist %s not written: %v", txt, err)
		}
	}

	if _, err := run(t, "chain", sidecar, "--start-key", "13A"); err == nil {
		t.Error("expected an error for an invalid start key")
	}
}

func TestGuide(t *testing.T) {
	sidecar := writeSidecar(t, t.TempDir())

	out, err := run(t, "guide", sidecar, "--json")
	if err != nil {
		t.Fatalf("guide: %v", err)
	}
	entries := decode[[]map[string]any](t, out)
	if len(entries) != 4 {
		t.Fatalf("got %d transitions, want 4", len(entries))
	}
	first := entries[0]
	if first["from"] != "deadmau5 - Strobe" || first["to"] != "deadmau5 - Ghosts" {
		t.Errorf("first transition = %v", first)
	}
	if first["technique"] != "bass_swap" {
		t.Errorf("8A -> 9A at 2 BPM should be a bass swap, got %v", first["technique"])
	}

	out, err = run(t, "guide", sidecar, "--plain")
	if err != nil || !strings.Contains(out, "Transition guide") {
		t.Errorf("plain guide = %q, err %v", out, err)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	sidecar := writeSidecar(t, dir)
	filtered := filepath.Join(dir, "clean.json")

	out, err := run(t, "validate", sidecar, "--filter", filtered, "--json")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	var report struct {
		Stats struct {
			Total    int            `json:"total"`
			ByStatus map[string]int `json:"by_status"`
		} `json:"stats"`
		Coverage struct {
			TotalKeys int `json:"total_keys"`
		} `json:"camelot_coverage"`
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid report %q: %v", out, err)
	}
	if report.Stats.Total != 5 || report.Stats.ByStatus["REJECT"] != 1 || report.Stats.ByStatus["EXCELLENT"] != 4 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if report.Coverage.TotalKeys != 5 {
		t.Errorf("coverage = %+v", report.Coverage)
	}
	if report.Removed != 1 {
		t.Errorf("removed = %d, want 1", report.Removed)
	}

	clean, err := playlist.ReadSidecar(filtered)
	if err != nil {
		t.Fatal(err)
	}
	if len(clean.Tracks) != 4 || clean.Tracks[3].Title != "Cola" || clean.Tracks[3].Position != 4 {
		t.Errorf("filtered tracks = %+v", clean.Tracks)
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeChordWAV(t, filepath.Join(dir, "Test Artist - A Minor.wav"))
	if err := os.WriteFile(filepath.Join(dir, "broken.mp3"), []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "batch", dir, "--progress=false", "--workers", "2", "--import", "--json")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	summary := decode[batchSummary](t, out)
	if summary.Total != 2 || summary.Analyzed != 1 || summary.Failed != 1 || summary.Imported != 1 {
		t.Errorf("summary = %+v", summary)
	}

	sidecar, err := playlist.ReadSidecar(summary.Sidecar)
	if err != nil {
		t.Fatal(err)
	}
	if len(sidecar.Tracks) != 2 {
		t.Fatalf("sidecar tracks = %+v", sidecar.Tracks)
	}
	// path order: upper case "Test Artist - ..." sorts before "broken.mp3"
	chord, broken := sidecar.Tracks[0], sidecar.Tracks[1]
	if broken.Error == "" {
		t.Errorf("broken.mp3 should carry an error: %+v", broken)
	}
	if chord.Artist != "Test Artist" || chord.Title != "A Minor" || chord.CamelotCode != "8A" || chord.TrackID == "" {
		t.Errorf("analyzed track = %+v", chord)
	}
	if chord.DurationMs != 4000 {
		t.Errorf("duration_ms = %d, want 4000", chord.DurationMs)
	}

	if _, err := run(t, "batch", dir, "--duration", "30"); err == nil {
		t.Error("expected an error for a window below 60 seconds")
	}
}

func TestBatchRecordsTrackLength(t *testing.T) {
	dir := t.TempDir()
	writeChordWAVAt(t, filepath.Join(dir, "Long Mix.wav"), 8000, 150)

	out, err := run(t, "batch", dir, "--progress=false", "--duration", "60", "--json")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	sidecar, err := playlist.ReadSidecar(decode[batchSummary](t, out).Sidecar)
	if err != nil {
		t.Fatal(err)
	}
	if len(sidecar.Tracks) != 1 {
		t.Fatalf("sidecar tracks = %+v", sidecar.Tracks)
	}
	if got := sidecar.Tracks[0].DurationMs; got != 150_000 {
		t.Errorf("duration_ms = %d, want the full 150000 rather than the analysis window", got)
	}
}

func TestToolList(t *testing.T) {
	out, err := run(t, "tool", "--json")
	if err != nil {
		t.Fatalf("tool: %v", err)
	}
	names := map[string]bool{}
	for _, ti := range decode[[]toolInfo](t, out) {
		names[ti.Name] = true
	}
	for _, want := range []string{"analyze_track", "search_tracks", "build_chain"} {
		if !names[want] {
			t.Errorf("tool list lacks %s: %v", want, names)
		}
	}

	out, err = run(t, "tool", "no_such_tool")
	if err != nil || !strings.Contains(out, "error") {
		t.Errorf("unknown tool output = %q, err %v", out, err)
	}
}
