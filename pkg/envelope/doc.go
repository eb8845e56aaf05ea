// Package envelope extracts JSON payloads from the HTML pages the gallery
// API serves to browser-like clients.
//
// A response body is an HTML document whose last <pre> element holds the
// JSON text, HTML-escaped. Decode parses the document with goquery, takes
// that element's text (entities already unescaped) and checks that it is
// valid JSON. Failures wrap errors.ErrDecode so callers can tell a changed
// page format apart from a payload that merely lacks a field.
package envelope
