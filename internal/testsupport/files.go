package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile creates path (and its parent directories) holding size bytes of
// filler. A size <= 0 writes a single byte so the file is never empty.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{'m'}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteArtifact writes a file like WriteFile and backdates its modification
// time by age, which is how sweeps decide what has expired.
func WriteArtifact(t testing.TB, path string, size int64, age time.Duration) {
	t.Helper()
	WriteFile(t, path, size)
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("backdate %s: %v", path, err)
	}
}
