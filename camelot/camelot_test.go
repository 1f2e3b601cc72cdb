package camelot

import (
	"slices"
	"testing"
)

func TestCompatibleCodes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"8A", []string{"8A", "9A", "7A", "8B"}},
		{"12B", []string{"12B", "1B", "11B", "12A"}},
		{"1A", []string{"1A", "2A", "12A", "1B"}},
		{" 5b ", []string{"5B", "6B", "4B", "5A"}},
		{"", []string{}},
		{"13A", []string{}},
		{"0B", []string{}},
		{"8C", []string{}},
		{"AB", []string{}},
	}
	for _, tt := range tests {
		got := CompatibleCodes(tt.in)
		if got == nil {
			t.Errorf("CompatibleCodes(%q) returned nil", tt.in)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("CompatibleCodes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompatibleIsSymmetric(t *testing.T) {
	for _, a := range AllCodes() {
		for _, b := range AllCodes() {
			if Compatible(a.String(), b.String()) != Compatible(b.String(), a.String()) {
				t.Fatalf("Compatible(%s, %s) is not symmetric", a, b)
			}
			inList := slices.Contains(CompatibleCodes(a.String()), b.String())
			if inList != Compatible(a.String(), b.String()) {
				t.Fatalf("CompatibleCodes(%s) and Compatible disagree on %s", a, b)
			}
		}
	}
}

func TestKeyCodeTables(t *testing.T) {
	tests := map[string]string{
		"C": "8B", "C#": "3B", "D": "10B", "D#": "5B", "E": "12B", "F": "7B",
		"F#": "2B", "G": "9B", "G#": "4B", "A": "11B", "A#": "6B", "B": "1B",
		"Cm": "5A", "C#m": "12A", "Dm": "7A", "D#m": "2A", "Em": "9A", "Fm": "4A",
		"F#m": "11A", "Gm": "6A", "G#m": "1A", "Am": "8A", "A#m": "3A", "Bm": "10A",
	}
	for key, code := range tests {
		if got := KeyToCode(key); got != code {
			t.Errorf("KeyToCode(%q) = %q, want %q", key, got, code)
		}
		if got := CodeToKey(code); got != key {
			t.Errorf("CodeToKey(%q) = %q, want %q", code, got, key)
		}
	}
}

func TestKeyToCodeSpellings(t *testing.T) {
	tests := map[string]string{
		"Bb":        "6B",
		"Ebm":       "2A",
		"Db major":  "3B",
		"F# Minor":  "11A",
		" a minor ": "8A",
		"Gbmin":     "11A",
		"c":         "8B",
		"H":         UnknownCode,
		"":          UnknownCode,
		"Unknown":   UnknownCode,
	}
	for key, want := range tests {
		if got := KeyToCode(key); got != want {
			t.Errorf("KeyToCode(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestCodeRoundTrip(t *testing.T) {
	codes := AllCodes()
	if len(codes) != 24 {
		t.Fatalf("AllCodes() = %d codes", len(codes))
	}
	for _, c := range codes {
		if got := KeyToCode(CodeToKey(c.String())); got != c.String() {
			t.Errorf("round trip %s -> %s", c, got)
		}
	}
	if CodeToKey("garbage") != UnknownKey {
		t.Error("CodeToKey should fall back to UnknownKey")
	}
}

func TestCodeNavigation(t *testing.T) {
	c := MustParse("12A")
	if c.Next().String() != "1A" || c.Prev().String() != "11A" || c.Relative().String() != "12B" {
		t.Fatalf("navigation from 12A: next %s prev %s relative %s", c.Next(), c.Prev(), c.Relative())
	}
	if got := MustParse("1B").Prev().String(); got != "12B" {
		t.Fatalf("1B prev = %s", got)
	}
	if (Code{}).String() != UnknownCode || (Code{}).Valid() {
		t.Fatal("zero code should be unknown")
	}
	if d := MustParse("1A").Distance(MustParse("11B")); d != 2 {
		t.Fatalf("distance 1A-11B = %d", d)
	}
}

func TestFromTonic(t *testing.T) {
	if got := FromTonic(0, false).String(); got != "8B" {
		t.Errorf("C major = %s", got)
	}
	if got := FromTonic(9, true).String(); got != "8A" {
		t.Errorf("A minor = %s", got)
	}
	if got := FromTonic(-1, false).String(); got != "1B" {
		t.Errorf("B major via -1 = %s", got)
	}
}

func TestOpenKey(t *testing.T) {
	tests := map[string]string{"8B": "1d", "8A": "1m", "1A": "6m", "12B": "5d", "7B": "12d"}
	for code, want := range tests {
		if got := MustParse(code).OpenKey(); got != want {
			t.Errorf("OpenKey(%s) = %s, want %s", code, got, want)
		}
	}
	if (Code{}).OpenKey() != "" {
		t.Error("unknown code should have empty open key")
	}
}

func TestRelationship(t *testing.T) {
	tests := []struct {
		from, to string
		want     Quality
	}{
		{"8A", "8A", QualityPerfect},
		{"8A", "9A", QualityExcellent},
		{"12B", "1B", QualityExcellent},
		{"1B", "12B", QualityExcellent},
		{"8A", "8B", QualityGood},
		{"8A", "10A", QualityModerate},
		{"1A", "11A", QualityModerate},
		{"8A", "3B", QualityChallenging},
		{"8A", "9B", QualityChallenging},
		{"", "8A", QualityUnknown},
		{"8A", "nope", QualityUnknown},
	}
	for _, tt := range tests {
		if got := Relationship(tt.from, tt.to); got.Quality != tt.want {
			t.Errorf("Relationship(%s, %s) = %s, want %s", tt.from, tt.to, got.Quality, tt.want)
		}
	}

	if got := Relationship("8A", "9A").Description; got != "Energy boost (+1 on the Camelot wheel)" {
		t.Errorf("unexpected description %q", got)
	}
}
