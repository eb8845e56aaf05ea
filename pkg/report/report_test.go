package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smugmirror/pkg/mirror"
	"smugmirror/pkg/storage"
)

func sampleSummary() *mirror.Summary {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &mirror.Summary{
		RunID:          "run-1",
		User:           "jdoe",
		OutputRoot:     "/data/",
		StartedAt:      start,
		FinishedAt:     start.Add(90 * time.Second),
		AlbumsListed:   3,
		AlbumsSelected: 2,
		AlbumsSkipped:  1,
		Downloaded:     4,
		Skipped:        1,
		Failed:         1,
		Albums: []mirror.AlbumSummary{
			{Name: "Trip", URI: "/api/v2/album/t", URLPath: "/Trip", Records: 3, Downloaded: 2, Failed: 1},
			{Name: "Family", URI: "/api/v2/album/f", URLPath: "/Family", Records: 3, Downloaded: 2, Skipped: 1},
		},
		Errors: []mirror.ErrorEntry{
			{Album: "Trip", FileName: "x.jpg", Kind: mirror.ErrorKindTransfer, Message: "http status 500"},
		},
	}
}

func newStore(t *testing.T) *storage.Manager {
	t.Helper()
	m, err := storage.NewManager(storage.Options{Root: t.TempDir()})
	require.NoError(t, err)
	return m
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"run.json", FormatJSON, false},
		{"run.JSON", FormatJSON, false},
		{"run.yaml", FormatYAML, false},
		{"out/run.yml", FormatYAML, false},
		{"run.txt", "", true},
		{"run", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")

	require.NoError(t, Write(newStore(t), path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "run-1", raw["run_id"])
	assert.Equal(t, float64(90), raw["duration_seconds"])
	assert.Equal(t, float64(6), raw["records"])
	assert.Len(t, raw["albums"], 2)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	summary := sampleSummary()

	require.NoError(t, Write(newStore(t), path, summary))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, loaded.RunID)
	assert.Equal(t, summary.Albums, loaded.Albums)
	assert.Equal(t, summary.Errors, loaded.Errors)
	assert.Equal(t, 90.0, loaded.DurationSeconds)
	assert.True(t, summary.StartedAt.Equal(loaded.StartedAt))
}

func TestWriteLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")

	require.NoError(t, Write(newStore(t), path, sampleSummary()))
	require.NoError(t, Write(newStore(t), path, sampleSummary()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run.json", entries[0].Name())
}

func TestWriteRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	err := Write(newStore(t), path, sampleSummary())
	require.Error(t, err)
	assert.NoFileExists(t, path)
}
