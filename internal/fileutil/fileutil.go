package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// rename is swapped in tests to simulate a cross-device move.
var rename = os.Rename

// MoveFile places src at dst so that dst is either absent or complete. Within
// one filesystem this is a rename. Across filesystems (EXDEV) src is copied to
// a hidden temporary file beside dst, verified, renamed into place and only
// then removed.
func MoveFile(src, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return fmt.Errorf("rename %s: %w", filepath.Base(src), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := CopyFileVerified(src, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("promote %s: %w", filepath.Base(dst), err)
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove moved source: %w", err)
	}
	return nil
}

// CopyFileVerified copies src to dst, fsyncs it, then re-reads dst and
// compares its size and SHA-256 against what was read from src. dst is
// removed when any step fails.
func CopyFileVerified(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	want := sha256.New()
	wantSize, err := io.Copy(out, io.TeeReader(in, want))
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}

	gotSize, gotSum, err := digest(dst)
	if err != nil {
		return fmt.Errorf("verify copy: %w", err)
	}
	if gotSize != wantSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", wantSize, gotSize)
	}
	if !bytes.Equal(gotSum, want.Sum(nil)) {
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

func digest(path string) (int64, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, nil, err
	}
	return n, h.Sum(nil), nil
}
