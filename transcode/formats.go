package transcode

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// SupportedFormats lists the file extensions the loader accepts
var SupportedFormats = []string{"mp3", "flac", "wav", "m4a", "ogg"}

// FormatFromPath returns the lower-case extension of path without the dot
func FormatFromPath(path string) string {
	return normalizeFormat(filepath.Ext(path))
}

// IsSupported reports whether ext (with or without a leading dot, any case) is accepted
func IsSupported(ext string) bool {
	return slices.Contains(SupportedFormats, normalizeFormat(ext))
}

// CheckFormat returns an error wrapping ErrUnsupportedFormat for anything outside SupportedFormats
func CheckFormat(ext string) error {
	if IsSupported(ext) {
		return nil
	}
	return fmt.Errorf("%w: %s. Use mp3, flac, wav, m4a, or ogg.", ErrUnsupportedFormat, normalizeFormat(ext))
}

func normalizeFormat(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
