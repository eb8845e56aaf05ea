package mirror

import (
	"time"
)

// ErrorEntry is one non-fatal failure collected during a run
type ErrorEntry struct {
	Album    string `json:"album,omitempty" yaml:"album,omitempty"`
	AlbumURI string `json:"album_uri,omitempty" yaml:"album_uri,omitempty"`
	FileName string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Kind     string `json:"kind" yaml:"kind"`
	Message  string `json:"message" yaml:"message"`
}

// Error kinds recorded in a Summary
const (
	ErrorKindAlbum      = "album"
	ErrorKindPagination = "pagination"
	ErrorKindResolution = "resolution"
	ErrorKindTransfer   = "transfer"
)

// AlbumSummary holds the counters of one selected album
type AlbumSummary struct {
	Name       string `json:"name" yaml:"name"`
	URI        string `json:"uri" yaml:"uri"`
	URLPath    string `json:"url_path" yaml:"url_path"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Records    int    `json:"records" yaml:"records"`
	Downloaded int    `json:"downloaded" yaml:"downloaded"`
	Skipped    int    `json:"skipped" yaml:"skipped"`
	Planned    int    `json:"planned,omitempty" yaml:"planned,omitempty"`
	Failed     int    `json:"failed" yaml:"failed"`
	Truncated  bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary describes a finished (or interrupted) run
type Summary struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	User       string    `json:"user" yaml:"user"`
	OutputRoot string    `json:"output_root" yaml:"output_root"`
	DryRun     bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Canceled   bool      `json:"canceled,omitempty" yaml:"canceled,omitempty"`

	AlbumsListed   int `json:"albums_listed" yaml:"albums_listed"`
	AlbumsSelected int `json:"albums_selected" yaml:"albums_selected"`
	AlbumsSkipped  int `json:"albums_skipped" yaml:"albums_skipped"`
	AlbumsFailed   int `json:"albums_failed" yaml:"albums_failed"`

	Downloaded int `json:"downloaded" yaml:"downloaded"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Planned    int `json:"planned,omitempty" yaml:"planned,omitempty"`
	Failed     int `json:"failed" yaml:"failed"`

	Albums []AlbumSummary `json:"albums" yaml:"albums"`
	Errors []ErrorEntry   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Duration returns how long the run took
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Records returns the number of records seen across all albums
func (s *Summary) Records() int {
	n := 0
	for _, a := range s.Albums {
		n += a.Records
	}
	return n
}

func (a *AlbumSummary) count(outcome Outcome) {
	switch outcome {
	case OutcomeDone:
		a.Downloaded++
	case OutcomeSkipped:
		a.Skipped++
	case OutcomePlanned:
		a.Planned++
	case OutcomeFailed:
		a.Failed++
	}
}

func (s *Summary) addAlbum(a AlbumSummary) {
	s.Albums = append(s.Albums, a)
	s.Downloaded += a.Downloaded
	s.Skipped += a.Skipped
	s.Planned += a.Planned
	s.Failed += a.Failed
	if a.Error != "" {
		s.AlbumsFailed++
	}
}
