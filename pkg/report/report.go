package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"smugmirror/pkg/mirror"
)

// Format is the encoding of a report file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Report is the on-disk form of a run summary
type Report struct {
	mirror.Summary `yaml:",inline"`

	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`
	TotalRecords    int       `json:"records" yaml:"records"`
	GeneratedAt     time.Time `json:"generated_at" yaml:"generated_at"`
}

// Saver writes a file atomically
type Saver interface {
	EnsureDir(dir string) error
	Save(path string, r io.Reader) (int64, error)
}

// FormatFor picks the encoding from the file extension
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report extension %q", filepath.Ext(path))
	}
}

// New wraps a summary for writing
func New(s *mirror.Summary) *Report {
	return &Report{
		Summary:         *s,
		DurationSeconds: s.Duration().Seconds(),
		TotalRecords:    s.Records(),
		GeneratedAt:     time.Now().UTC(),
	}
}

// Encode renders the report in the given format
func (r *Report) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Write encodes the summary by path extension and saves it through store
func Write(store Saver, path string, s *mirror.Summary) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	data, err := New(s).Encode(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := store.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if _, err := store.Save(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// Load reads a report written by Write
func Load(path string) (*Report, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r Report
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &r, nil
}
