package smugmug

import (
	"encoding/json"
)

// MediaKind names a sized rendition referenced from a media record
type MediaKind string

const (
	LargestImage MediaKind = "LargestImage"
	LargestVideo MediaKind = "LargestVideo"
)

// Album is one entry of a user's album list. URI is its identity.
type Album struct {
	Name    string `json:"Name" yaml:"name"`
	URLPath string `json:"UrlPath" yaml:"url_path"`
	URI     string `json:"Uri" yaml:"uri"`
}

// URIRef is a reference to another API resource. The API sends it either
// as a bare string or as an object with a Uri member.
type URIRef struct {
	URI string
}

// UnmarshalJSON accepts both reference shapes. Anything else decodes to an
// empty reference so one odd entry in Uris does not reject the whole record.
func (r *URIRef) UnmarshalJSON(data []byte) error {
	r.URI = ""

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URI = s
		return nil
	}

	var obj struct {
		URI json.RawMessage `json:"Uri"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && len(obj.URI) > 0 {
		if err := json.Unmarshal(obj.URI, &s); err == nil {
			r.URI = s
		}
	}
	return nil
}

// MarshalJSON writes the object form
func (r URIRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		URI string `json:"Uri"`
	}{r.URI})
}

// MediaRecord is one image or video in an album
type MediaRecord struct {
	FileName    string               `json:"FileName"`
	Uris        map[MediaKind]URIRef `json:"Uris,omitempty"`
	ArchivedURI string               `json:"ArchivedUri,omitempty"`
}

// Ref returns the resource reference for kind, if the record has one
func (m MediaRecord) Ref(kind MediaKind) (string, bool) {
	ref, ok := m.Uris[kind]
	if !ok || ref.URI == "" {
		return "", false
	}
	return ref.URI, true
}

// Pages carries the continuation link of a paginated listing
type Pages struct {
	NextPage string `json:"NextPage"`
}

// MediaURL is the body of a LargestImage or LargestVideo resource
type MediaURL struct {
	URL string `json:"Url"`
}
