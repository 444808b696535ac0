package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/media/audio"
)

// WriteFile creates path, and any missing parents, holding size filler
// bytes. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteAudio writes a placeholder audio file that SizeProber measures as
// seconds long.
func WriteAudio(t testing.TB, path string, seconds float64) {
	t.Helper()
	WriteFile(t, path, int64(seconds*audio.FallbackBytesPerSecond))
}
