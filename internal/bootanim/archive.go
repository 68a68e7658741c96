package bootanim

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Entry is one file placed in an archive. Data, when non-nil, is written
// verbatim; otherwise the file at Path is copied.
type Entry struct {
	Name string
	Path string
	Data []byte
}

// Archiver creates a zip archive at dest containing entries in order.
type Archiver interface {
	Archive(ctx context.Context, dest string, entries []Entry) error
}

// ArchiverFunc adapts a function to the Archiver interface.
type ArchiverFunc func(ctx context.Context, dest string, entries []Entry) error

// Archive calls f.
func (f ArchiverFunc) Archive(ctx context.Context, dest string, entries []Entry) error {
	return f(ctx, dest, entries)
}

// ZipArchiver writes deflate-compressed zip archives in process.
type ZipArchiver struct{}

// Archive writes entries to dest. dest is removed on failure, including when
// ctx expires mid-copy.
func (ZipArchiver) Archive(ctx context.Context, dest string, entries []Entry) (err error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dest)
		}
	}()
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}
	}()

	zw := zip.NewWriter(out)
	now := time.Now()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addEntry(ctx, zw, entry, now); err != nil {
			return fmt.Errorf("add %s: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

func addEntry(ctx context.Context, zw *zip.Writer, entry Entry, now time.Time) error {
	if entry.Data != nil {
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate, Modified: now}
		header.SetMode(0o644)
		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, ctxReader{ctx: ctx, r: bytes.NewReader(entry.Data)})
		return err
	}

	file, err := os.Open(entry.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = entry.Name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, ctxReader{ctx: ctx, r: file})
	return err
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// collectTree returns entries for every regular file under root, named
// relative to prefix with forward slashes, in lexical walk order.
func collectTree(root, prefix string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: path.Join(prefix, filepath.ToSlash(rel)), Path: p})
		return nil
	})
	return entries, err
}
