package mirror

import (
	"strings"

	"smugmirror/pkg/smugmug"
)

// AlbumSeparator splits the album list accepted on the command line
const AlbumSeparator = "$"

// ParseAlbumList splits a "$"-separated list of album names. Names are
// trimmed and empty entries dropped.
func ParseAlbumList(s string) []string {
	var names []string
	for _, part := range strings.Split(s, AlbumSeparator) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// AlbumFilter selects albums by exact trimmed name
type AlbumFilter struct {
	names map[string]struct{}
}

// NewAlbumFilter builds a filter from names. No names selects every album.
func NewAlbumFilter(names []string) AlbumFilter {
	f := AlbumFilter{names: map[string]struct{}{}}
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			f.names[name] = struct{}{}
		}
	}
	return f
}

// Empty reports whether the filter selects every album
func (f AlbumFilter) Empty() bool {
	return len(f.names) == 0
}

// Match reports whether an album called name is selected. Surrounding
// whitespace in the album name is ignored, so "B " and "B" both match "B".
func (f AlbumFilter) Match(name string) bool {
	if f.Empty() {
		return true
	}
	_, ok := f.names[strings.TrimSpace(name)]
	return ok
}

// Select returns the matching albums in their original order
func (f AlbumFilter) Select(albums []smugmug.Album) []smugmug.Album {
	selected := make([]smugmug.Album, 0, len(albums))
	for _, album := range albums {
		if f.Match(album.Name) {
			selected = append(selected, album)
		}
	}
	return selected
}
