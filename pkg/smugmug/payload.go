package smugmug

import (
	"encoding/json"
	"fmt"

	errs "smugmirror/pkg/errors"
)

// Payload is the decoded Response object of an API envelope
type Payload struct {
	path   string
	fields map[string]json.RawMessage
}

// ParsePayload reads the top-level Response object of raw. A document
// without Response yields an empty payload; a document that is not an
// object at all is a decode failure.
func ParsePayload(path string, raw json.RawMessage) (*Payload, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: top level is not an object: %v", errs.ErrDecode, err)
	}

	p := &Payload{path: path, fields: map[string]json.RawMessage{}}

	response, ok := doc["Response"]
	if !ok || isNull(response) {
		return p, nil
	}
	if err := json.Unmarshal(response, &p.fields); err != nil {
		return nil, fmt.Errorf("%w: Response is not an object: %v", errs.ErrDecode, err)
	}
	return p, nil
}

// Path returns the resource path the payload was fetched from
func (p *Payload) Path() string {
	return p.path
}

// Has reports whether field is present and not null
func (p *Payload) Has(field string) bool {
	raw, ok := p.fields[field]
	return ok && !isNull(raw)
}

// Field decodes field into target. A missing or ill-typed field wraps errors.ErrSchema.
func (p *Payload) Field(field string, target interface{}) error {
	if !p.Has(field) {
		return fmt.Errorf("%w: %s has no %s", errs.ErrSchema, p.path, field)
	}
	if err := json.Unmarshal(p.fields[field], target); err != nil {
		return fmt.Errorf("%w: %s field %s: %v", errs.ErrSchema, p.path, field, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
