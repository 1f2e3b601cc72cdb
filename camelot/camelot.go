// Package camelot models the Camelot wheel used for harmonic mixing.
// A code is a position 1-12 and a letter: A for minor keys, B for major keys.
package camelot

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// UnknownCode is returned by KeyToCode for anything that is not one of the 24 keys
	UnknownCode = ""
	// UnknownKey is returned by CodeToKey for anything that is not one of the 24 codes
	UnknownKey = "Unknown"
)

// Code is a position on the Camelot wheel. The zero value is the unknown code.
type Code struct {
	Number int  `json:"number"`
	Letter byte `json:"letter"`
}

var (
	// indexed by pitch class, C = 0
	majorByTonic = [12]int{8, 3, 10, 5, 12, 7, 2, 9, 4, 11, 6, 1}
	minorByTonic = [12]int{5, 12, 7, 2, 9, 4, 11, 6, 1, 8, 3, 10}

	sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

	flatToSharp = map[string]string{
		"DB": "C#", "EB": "D#", "GB": "F#", "AB": "G#", "BB": "A#",
		"CB": "B", "FB": "E", "E#": "F", "B#": "C",
	}

	keyToCode = map[string]Code{}
	codeToKey = map[Code]string{}
)

func init() {
	for tonic, name := range sharpNames {
		major := Code{Number: majorByTonic[tonic], Letter: 'B'}
		minor := Code{Number: minorByTonic[tonic], Letter: 'A'}

		keyToCode[name] = major
		keyToCode[name+"m"] = minor
		codeToKey[major] = name
		codeToKey[minor] = name + "m"
	}
}

// FromTonic returns the code for a pitch class (C = 0) and mode
func FromTonic(tonic int, minor bool) Code {
	tonic = ((tonic % 12) + 12) % 12
	if minor {
		return Code{Number: minorByTonic[tonic], Letter: 'A'}
	}
	return Code{Number: majorByTonic[tonic], Letter: 'B'}
}

// ParseCode parses "8B", "12a" or " 1A ". Anything else is an error.
func ParseCode(s string) (Code, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Code{}, fmt.Errorf("invalid camelot code %q", s)
	}

	letter := s[len(s)-1]
	if letter != 'A' && letter != 'B' {
		return Code{}, fmt.Errorf("invalid camelot letter in %q", s)
	}

	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 1 || num > 12 {
		return Code{}, fmt.Errorf("invalid camelot number in %q", s)
	}

	return Code{Number: num, Letter: letter}, nil
}

// MustParse is ParseCode for known-good literals
func MustParse(s string) Code {
	c, err := ParseCode(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether c is one of the 24 wheel positions
func (c Code) Valid() bool {
	return c.Number >= 1 && c.Number <= 12 && (c.Letter == 'A' || c.Letter == 'B')
}

// IsMinor reports whether c is on the minor (A) ring
func (c Code) IsMinor() bool {
	return c.Letter == 'A'
}

func (c Code) String() string {
	if !c.Valid() {
		return UnknownCode
	}
	return strconv.Itoa(c.Number) + string(c.Letter)
}

// Next moves one step clockwise on the same ring (12 wraps to 1)
func (c Code) Next() Code {
	return Code{Number: c.Number%12 + 1, Letter: c.Letter}
}

// Prev moves one step anticlockwise on the same ring (1 wraps to 12)
func (c Code) Prev() Code {
	return Code{Number: (c.Number+10)%12 + 1, Letter: c.Letter}
}

// Relative switches between the relative major and minor
func (c Code) Relative() Code {
	if c.Letter == 'A' {
		return Code{Number: c.Number, Letter: 'B'}
	}
	return Code{Number: c.Number, Letter: 'A'}
}

// Key returns the sharp-spelled key name ("C", "Am")
func (c Code) Key() string {
	if name, ok := codeToKey[c]; ok {
		return name
	}
	return UnknownKey
}

// OpenKey returns the Open Key notation of c (8B -> 1d, 8A -> 1m)
func (c Code) OpenKey() string {
	if !c.Valid() {
		return ""
	}
	suffix := "d"
	if c.IsMinor() {
		suffix = "m"
	}
	return strconv.Itoa((c.Number+4)%12+1) + suffix
}

// Distance is the number of steps between the wheel numbers, ignoring letters (0-6)
func (c Code) Distance(other Code) int {
	d := (other.Number - c.Number + 12) % 12
	return min(d, 12-d)
}

// AllCodes lists the 24 codes: 1A, 1B, 2A, 2B, ... 12B
func AllCodes() []Code {
	codes := make([]Code, 0, 24)
	for n := 1; n <= 12; n++ {
		codes = append(codes, Code{Number: n, Letter: 'A'}, Code{Number: n, Letter: 'B'})
	}
	return codes
}

// CompatibleCodes returns [code, +1, -1, relative] for a valid code and an empty slice otherwise
func CompatibleCodes(code string) []string {
	c, err := ParseCode(code)
	if err != nil {
		return []string{}
	}
	return []string{c.String(), c.Next().String(), c.Prev().String(), c.Relative().String()}
}

// Compatible reports whether two codes can be mixed harmonically:
// identical, adjacent on the same ring, or relative major/minor
func Compatible(a, b string) bool {
	ca, errA := ParseCode(a)
	cb, errB := ParseCode(b)
	if errA != nil || errB != nil {
		return false
	}
	if ca.Letter == cb.Letter {
		return ca.Distance(cb) <= 1
	}
	return ca.Number == cb.Number
}

// KeyToCode maps a key name to its code string.
// Flats, "major"/"minor"/"maj"/"min" suffixes and stray whitespace are accepted.
func KeyToCode(key string) string {
	name, ok := normalizeKey(key)
	if !ok {
		return UnknownCode
	}
	return keyToCode[name].String()
}

// CodeToKey maps a code string to its sharp-spelled key name
func CodeToKey(code string) string {
	c, err := ParseCode(code)
	if err != nil {
		return UnknownKey
	}
	return c.Key()
}

// normalizeKey turns "Bb minor", "eb", "F# Major" or "C#m" into the canonical "A#m", "D#", "F#", "C#m"
func normalizeKey(key string) (string, bool) {
	k := strings.ToUpper(strings.Join(strings.Fields(key), ""))
	if k == "" {
		return "", false
	}

	minor := false
	switch {
	case strings.HasSuffix(k, "MAJOR"):
		k = strings.TrimSuffix(k, "MAJOR")
	case strings.HasSuffix(k, "MINOR"):
		k, minor = strings.TrimSuffix(k, "MINOR"), true
	case strings.HasSuffix(k, "MAJ"):
		k = strings.TrimSuffix(k, "MAJ")
	case strings.HasSuffix(k, "MIN"):
		k, minor = strings.TrimSuffix(k, "MIN"), true
	case len(k) > 1 && strings.HasSuffix(k, "M"):
		k, minor = strings.TrimSuffix(k, "M"), true
	}

	if sharp, ok := flatToSharp[k]; ok {
		k = sharp
	}
	if minor {
		k += "m"
	}

	if _, ok := keyToCode[k]; !ok {
		return "", false
	}
	return k, true
}
