package playlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteM3U8 writes an extended M3U playlist. BPM, key and Camelot tags are
// only written for tracks that have them; an unknown length is written as -1.
func WriteM3U8(w io.Writer, tracks []Track) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#EXTM3U")

	for _, t := range tracks {
		seconds := t.DurationMs / 1000
		if t.DurationMs <= 0 {
			seconds = -1
		}
		fmt.Fprintf(bw, "#EXTINF:%d,%s\n", seconds, t.displayName())
		if t.Genre != "" {
			fmt.Fprintf(bw, "#EXTGENRE:%s\n", t.Genre)
		}
		if t.BPM > 0 {
			fmt.Fprintf(bw, "#EXTBPM:%.1f\n", t.BPM)
		}
		if t.Key != "" {
			fmt.Fprintf(bw, "#EXTKEY:%s\n", t.Key)
		}
		if t.CamelotCode != "" {
			fmt.Fprintf(bw, "#EXTCAMELOT:%s\n", t.CamelotCode)
		}
		fmt.Fprintln(bw, t.FileName())
	}

	return bw.Flush()
}

// WriteTracklist writes a plain-text tracklist for posting alongside a set
func WriteTracklist(w io.Writer, name string, tracks []Track) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("═", 43)

	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "  %s\n", strings.ToUpper(strings.ReplaceAll(name, "_", " ")))
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)

	for i, t := range tracks {
		bpm := "???"
		if t.BPM > 0 {
			bpm = fmt.Sprintf("%.1f", t.BPM)
		}
		fmt.Fprintf(bw, "%02d. %s\n", i+1, t.displayName())
		fmt.Fprintf(bw, "    %s BPM | %s (%s) | %s\n\n", bpm, orUnknown(t.Key), orUnknown(t.CamelotCode), t.Genre)
	}

	return bw.Flush()
}

func orUnknown(s string) string {
	if s == "" {
		return "???"
	}
	return s
}

// SaveVariation writes <dir>/<name>/<name>.m3u8 and <name>_tracklist.txt and
// returns the playlist path
func SaveVariation(dir, name string, tracks []Track) (string, error) {
	varDir := filepath.Join(dir, name)
	if err := os.MkdirAll(varDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", varDir, err)
	}

	m3uPath := filepath.Join(varDir, name+".m3u8")
	if err := writeWith(m3uPath, func(w io.Writer) error { return WriteM3U8(w, tracks) }); err != nil {
		return "", err
	}

	txtPath := filepath.Join(varDir, name+"_tracklist.txt")
	if err := writeWith(txtPath, func(w io.Writer) error { return WriteTracklist(w, name, tracks) }); err != nil {
		return "", err
	}

	return m3uPath, nil
}

func writeWith(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
