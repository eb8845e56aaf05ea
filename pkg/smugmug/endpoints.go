package smugmug

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultEndpoint is the public gallery host
	DefaultEndpoint = "https://www.smugmug.com"

	// SessionCookie carries the caller-supplied session token on API requests
	SessionCookie = "SMSESS"

	// AlbumListEndpoint lists every album owned by a user
	AlbumListEndpoint = "/api/v2/folder/user/%s!albumlist"

	// ImagesSuffix is appended to an album URI to page through its media
	ImagesSuffix = "!images"
)

// Payload fields read by the mirror
const (
	FieldAlbumList  = "AlbumList"
	FieldAlbumImage = "AlbumImage"
	FieldPages      = "Pages"
)

// AlbumListPath returns the resource path of user's album list
func AlbumListPath(user string) string {
	return fmt.Sprintf(AlbumListEndpoint, url.PathEscape(user))
}

// AlbumImagesPath returns the resource path of the first media page of an album
func AlbumImagesPath(albumURI string) string {
	return albumURI + ImagesSuffix
}

// IsAbsolute reports whether ref is a full URL rather than a resource path
func IsAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// JoinEndpoint resolves a resource path against endpoint. Absolute URLs are returned unchanged.
func JoinEndpoint(endpoint, ref string) string {
	if IsAbsolute(ref) {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return strings.TrimRight(endpoint, "/") + ref
}
