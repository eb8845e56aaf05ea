package mirror

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	disallowedFileRunes = regexp.MustCompile(`[^A-Za-z0-9_.\- ]`)

	errEmptyFileName = errors.New("file name is empty after sanitizing")
)

// SanitizeFileName replaces every rune outside [A-Za-z0-9_.\- ] with an
// underscore. Names that would address the directory itself are rejected.
func SanitizeFileName(name string) (string, error) {
	clean := disallowedFileRunes.ReplaceAllString(name, "_")
	switch strings.TrimSpace(clean) {
	case "", ".", "..":
		return "", fmt.Errorf("%w: %q", errEmptyFileName, name)
	}
	return clean, nil
}

// AlbumDir maps an album URL path to its directory under root
func AlbumDir(root, urlPath string) (string, error) {
	rel := strings.Trim(urlPath, "/")
	if rel == "" {
		return filepath.Clean(root), nil
	}

	rel = filepath.FromSlash(rel)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("album path %q escapes the output root", urlPath)
	}
	return filepath.Join(root, rel), nil
}
