package envelope

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "smugmirror/pkg/errors"
)

var (
	// ErrNoEnvelope is returned when the body has no <pre> element
	ErrNoEnvelope = fmt.Errorf("%w: no <pre> block in response", errs.ErrDecode)
	// ErrMalformedPayload is returned when the <pre> text is not valid JSON
	ErrMalformedPayload = fmt.Errorf("%w: <pre> block is not valid JSON", errs.ErrDecode)
)

// Decode returns the JSON text of the last <pre> element in body
func Decode(body io.Reader) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse html: %v", errs.ErrDecode, err)
	}

	pre := doc.Find("pre")
	if pre.Length() == 0 {
		return nil, ErrNoEnvelope
	}

	text := strings.TrimSpace(pre.Last().Text())
	if !json.Valid([]byte(text)) {
		var discard interface{}
		err := json.Unmarshal([]byte(text), &discard)
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return json.RawMessage(text), nil
}
