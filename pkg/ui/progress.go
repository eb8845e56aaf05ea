package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"smugmirror/pkg/mirror"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker prints a single progress line for a mirror run.
// It implements mirror.Progress and is safe for concurrent use.
type StatusTracker struct {
	mu sync.Mutex

	album      string
	records    int
	processed  int
	downloaded int
	skipped    int
	planned    int
	failed     int
	albums     int
	startTime  time.Time
	lineActive bool
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		startTime: time.Now(),
	}
}

// AlbumStarted resets the per-album bar
func (st *StatusTracker) AlbumStarted(name string, records int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.endLine()
	st.album = name
	st.records = records
	st.processed = 0
	st.albums++

	fmt.Fprintf(stdout(), "%s %s %s\n", Magenta("[ALBUM]"), name, Dim(fmt.Sprintf("(%d records)", records)))
	st.printProgress()
}

// RecordFinished counts one record outcome
func (st *StatusTracker) RecordFinished(album string, outcome mirror.Outcome) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if album == st.album {
		st.processed++
	}
	switch outcome {
	case mirror.OutcomeDone:
		st.downloaded++
	case mirror.OutcomeSkipped:
		st.skipped++
	case mirror.OutcomePlanned:
		st.planned++
	case mirror.OutcomeFailed:
		st.failed++
	}
	st.printProgress()
}

// AlbumFinished terminates the progress line
func (st *StatusTracker) AlbumFinished(string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.endLine()
}

// Counts returns downloaded, skipped, planned and failed totals
func (st *StatusTracker) Counts() (downloaded, skipped, planned, failed int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.downloaded, st.skipped, st.planned, st.failed
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}

// GetDownloadRate returns downloads per minute
func (st *StatusTracker) GetDownloadRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return float64(st.downloaded) / elapsed
}

// AlbumProgress renders the bar for the current album
func (st *StatusTracker) AlbumProgress() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.bar()
}

func (st *StatusTracker) bar() string {
	filled := 0
	if st.records > 0 {
		filled = st.processed * barWidth / st.records
	}
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, barWidth-filled),
		st.processed, st.records)
}

func (st *StatusTracker) printProgress() {
	fmt.Fprintf(stdout(), "\r%s %s | new %d | existing %d | failed %d",
		Green("[MIRROR]"), st.bar(), st.downloaded, st.skipped, st.failed)
	st.lineActive = true
}

func (st *StatusTracker) endLine() {
	if st.lineActive {
		fmt.Fprintln(stdout())
		st.lineActive = false
	}
}

// PrintSummary prints the end-of-run totals
func PrintSummary(s *mirror.Summary) {
	if s == nil {
		return
	}
	PrintHighlight("Run summary")
	PrintInfo("Run", s.RunID)
	PrintInfo("User", s.User)
	PrintInfo("Output", s.OutputRoot)
	PrintInfo("Albums", fmt.Sprintf("%d listed, %d selected, %d failed", s.AlbumsListed, s.AlbumsSelected, s.AlbumsFailed))
	if s.DryRun {
		PrintInfo("Planned", fmt.Sprintf("%d", s.Planned))
	} else {
		PrintInfo("Downloaded", fmt.Sprintf("%d", s.Downloaded))
	}
	PrintInfo("Already present", fmt.Sprintf("%d", s.Skipped))
	PrintInfo("Duration", s.Duration().Round(time.Millisecond).String())

	if s.Failed > 0 || len(s.Errors) > 0 {
		PrintWarning(fmt.Sprintf("%d records failed", s.Failed))
		for _, e := range s.Errors {
			PrintWarning(fmt.Sprintf("  [%s] %s", e.Kind, describe(e)))
		}
	}
	if s.Canceled {
		PrintWarning("Run was interrupted; rerun to resume")
	} else {
		PrintSuccess("Mirror complete")
	}
}

func describe(e mirror.ErrorEntry) string {
	var parts []string
	if e.Album != "" {
		parts = append(parts, e.Album)
	}
	if e.FileName != "" {
		parts = append(parts, e.FileName)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}
