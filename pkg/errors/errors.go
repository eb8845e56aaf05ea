package errors

import (
	stderrors "errors"
	"fmt"
)

// FetchKind tags the way a resource fetch failed
type FetchKind string

const (
	KindNetwork    FetchKind = "network"
	KindHTTPStatus FetchKind = "http_status"
	KindDecode     FetchKind = "decode"
)

var (
	// ErrDecode is the root of every envelope decoding failure
	ErrDecode = stderrors.New("envelope decode failed")
	// ErrSchema means the envelope decoded but the payload lacks an expected field
	ErrSchema = stderrors.New("unexpected payload schema")
)

// FetchError is returned by the API client for a single failed attempt.
// Callers treat all kinds the same way; the tag exists for logging.
type FetchError struct {
	Kind FetchKind
	Code int
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.Path, e.Code)
	default:
		if e.Err != nil {
			return fmt.Sprintf("fetch %s: %s error: %v", e.Path, e.Kind, e.Err)
		}
		return fmt.Sprintf("fetch %s: %s error", e.Path, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport failure
func NewNetworkError(path string, err error) *FetchError {
	return &FetchError{Kind: KindNetwork, Path: path, Err: err}
}

// NewStatusError records a non-success HTTP status
func NewStatusError(path string, code int) *FetchError {
	return &FetchError{Kind: KindHTTPStatus, Code: code, Path: path}
}

// NewDecodeError wraps an envelope or payload decoding failure
func NewDecodeError(path string, err error) *FetchError {
	return &FetchError{Kind: KindDecode, Path: path, Err: err}
}

// Enumeration failure reasons
const (
	ReasonUnreachable = "album list unreachable"
	ReasonNoAlbums    = "no albums found"
)

// FatalEnumerationError aborts the whole run
type FatalEnumerationError struct {
	User   string
	Reason string
	Err    error
}

func (e *FatalEnumerationError) Error() string {
	if e.Reason == ReasonNoAlbums {
		return fmt.Sprintf("no albums were found for the user %s; the user may not exist or may be password protected", e.User)
	}
	if e.Err != nil {
		return fmt.Sprintf("could not retrieve album list for %s: %v", e.User, e.Err)
	}
	return fmt.Sprintf("could not retrieve album list for %s", e.User)
}

func (e *FatalEnumerationError) Unwrap() error {
	return e.Err
}

// PartialPaginationError reports a continuation page that could not be fetched
type PartialPaginationError struct {
	Album    string
	AlbumURI string
	Page     string
	Fetched  int
	Err      error
}

func (e *PartialPaginationError) Error() string {
	return fmt.Sprintf("could not retrieve images page %s for album %s (%s) after %d records: %v",
		e.Page, e.Album, e.AlbumURI, e.Fetched, e.Err)
}

func (e *PartialPaginationError) Unwrap() error {
	return e.Err
}

// SkippableResolutionError means one record's download URL could not be determined
type SkippableResolutionError struct {
	FileName string
	Resource string
	Err      error
}

func (e *SkippableResolutionError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("could not resolve %s: %v", e.FileName, e.Err)
	}
	return fmt.Sprintf("could not resolve %s via %s: %v", e.FileName, e.Resource, e.Err)
}

func (e *SkippableResolutionError) Unwrap() error {
	return e.Err
}

// SkippableTransferError means one record's bytes could not be streamed to disk
type SkippableTransferError struct {
	FileName string
	URL      string
	Path     string
	Err      error
}

func (e *SkippableTransferError) Error() string {
	return fmt.Sprintf("could not download %s from %s: %v", e.FileName, e.URL, e.Err)
}

func (e *SkippableTransferError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	var fatal *FatalEnumerationError
	return stderrors.As(err, &fatal)
}

// IsSkippable reports whether err only affects a single record
func IsSkippable(err error) bool {
	var resolution *SkippableResolutionError
	var transfer *SkippableTransferError
	return stderrors.As(err, &resolution) || stderrors.As(err, &transfer)
}

// IsDecode reports whether err stems from a malformed or missing envelope
func IsDecode(err error) bool {
	return stderrors.Is(err, ErrDecode)
}

// IsSchema reports whether err stems from a valid envelope with an unexpected payload
func IsSchema(err error) bool {
	return stderrors.Is(err, ErrSchema)
}
