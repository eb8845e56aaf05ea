package mirror

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// PaginationPolicy decides what happens when a continuation page cannot be fetched
type PaginationPolicy string

const (
	// PaginationTruncate keeps the records fetched so far and carries on
	PaginationTruncate PaginationPolicy = "truncate"
	// PaginationAbort skips the whole album
	PaginationAbort PaginationPolicy = "abort"
)

// Options is the immutable run configuration threaded into a Mirror
type Options struct {
	// User owns the albums being mirrored
	User string
	// OutputRoot is the local directory albums are mirrored under
	OutputRoot string
	// AlbumFilter restricts the run to these album names; empty selects all
	AlbumFilter []string
	// Concurrency is the number of records processed in parallel per album
	Concurrency int
	// Pagination is the continuation-page failure policy
	Pagination PaginationPolicy
	// DryRun resolves everything but writes nothing
	DryRun bool
	// RunID identifies the run in logs and reports
	RunID string
}

// NormalizeRoot returns root with exactly one trailing separator
func NormalizeRoot(root string) string {
	if root == "" {
		return "." + string(os.PathSeparator)
	}
	root = strings.TrimRight(root, `/\`)
	if root == "" {
		return string(os.PathSeparator)
	}
	return root + string(os.PathSeparator)
}

// ValidPagination reports whether p names a known policy
func ValidPagination(p PaginationPolicy) bool {
	return p == PaginationTruncate || p == PaginationAbort
}

// withDefaults fills zero values
func (o Options) withDefaults() Options {
	o.OutputRoot = NormalizeRoot(o.OutputRoot)
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Pagination == "" {
		o.Pagination = PaginationTruncate
	}
	return o
}

// Validate checks the options
func (o Options) Validate() error {
	var errs []error
	if strings.TrimSpace(o.User) == "" {
		errs = append(errs, errors.New("user is required"))
	}
	if o.Pagination != "" && !ValidPagination(o.Pagination) {
		errs = append(errs, fmt.Errorf("pagination must be %q or %q, got %q", PaginationTruncate, PaginationAbort, o.Pagination))
	}
	if o.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", o.Concurrency))
	}
	return errors.Join(errs...)
}
