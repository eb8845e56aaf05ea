package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(Options{Root: tempDir})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.SavedCount() != 0 {
		t.Error("Expected initial saved count to be 0")
	}

	albumDir := filepath.Join(tempDir, "Trips", "Iceland")
	if err := manager.EnsureDir(albumDir); err != nil {
		t.Fatalf("Failed to create album dir: %v", err)
	}

	target := filepath.Join(albumDir, "IMG_0001.jpg")
	if manager.Exists(target) {
		t.Error("Expected Exists to return false for non-existent file")
	}

	testData := []byte("test photo data")
	n, err := manager.Save(target, bytes.NewReader(testData))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}
	if n != int64(len(testData)) {
		t.Errorf("Expected %d bytes written, got %d", len(testData), n)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	if !manager.Exists(target) {
		t.Error("Expected Exists to return true for saved file")
	}
	if manager.SavedCount() != 1 || manager.SavedBytes() != int64(len(testData)) {
		t.Errorf("Unexpected counters: %d files, %d bytes", manager.SavedCount(), manager.SavedBytes())
	}

	assertNoTempFiles(t, albumDir)
}

func TestSaveZeroBytes(t *testing.T) {
	tempDir := t.TempDir()
	manager, _ := NewManager(Options{Root: tempDir})

	target := filepath.Join(tempDir, "empty.jpg")
	n, err := manager.Save(target, strings.NewReader(""))
	if err != nil {
		t.Fatalf("Failed to save empty file: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 bytes, got %d", n)
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("Expected empty file to exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty file, got %d bytes", info.Size())
	}
}

// failingReader yields some bytes and then breaks
type failingReader struct {
	data []byte
	sent bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, f.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestSaveFailureLeavesNothing(t *testing.T) {
	tempDir := t.TempDir()
	manager, _ := NewManager(Options{Root: tempDir})

	target := filepath.Join(tempDir, "broken.mp4")
	_, err := manager.Save(target, &failingReader{data: []byte("partial")})
	if err == nil {
		t.Fatal("Expected error from failing reader")
	}

	if manager.Exists(target) {
		t.Error("Expected no file at target after failed save")
	}
	if manager.SavedCount() != 0 {
		t.Error("Expected failed save not to be counted")
	}
	assertNoTempFiles(t, tempDir)
}

// chunkRecorder records the size of each write
type chunkRecorder struct {
	sizes []int
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return len(p), nil
}

func TestCopyChunksRespectsChunkSize(t *testing.T) {
	manager, _ := NewManager(Options{Root: t.TempDir(), ChunkSize: 4})

	rec := &chunkRecorder{}
	n, err := manager.copyChunks(rec, io.LimitReader(strings.NewReader(strings.Repeat("x", 10)), 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 10 {
		t.Errorf("Expected 10 bytes, got %d", n)
	}
	for _, size := range rec.sizes {
		if size > 4 {
			t.Errorf("Expected writes of at most 4 bytes, got %d", size)
		}
	}
}

func TestNewManagerDefaults(t *testing.T) {
	if _, err := NewManager(Options{}); err == nil {
		t.Error("Expected error without root")
	}

	manager, err := NewManager(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if manager.chunkSize != DefaultChunkSize {
		t.Errorf("Expected default chunk size, got %d", manager.chunkSize)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), TempSuffix) {
			t.Errorf("Unexpected temporary file left behind: %s", entry.Name())
		}
	}
}
