package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mediakit/internal/logging"
	"mediakit/internal/services"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 32 << 20

var allowedMediaExt = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".webm": true,
	".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".flac": true, ".aac": true,
}

var allowedVideoExt = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".webm": true, ".gif": true,
}

type upload struct {
	path     string
	original string
	size     int64
}

// receiveUpload stores the multipart "file" field in the uploads directory
// under a fresh UUID name, keeping the original extension.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request, allowed map[string]bool) (upload, error) {
	maxBytes := s.cfg.MaxUploadBytes()
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, err
		}
		return upload{}, services.Validationf("invalid multipart form: %v", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return upload{}, services.Validationf("file is required")
		}
		return upload{}, services.Validationf("read uploaded file: %v", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowed[ext] {
		return upload{}, services.Validationf("unsupported file type %q", ext)
	}

	dest := filepath.Join(s.cfg.Paths.UploadsDir, uuid.NewString()+ext)
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return upload{}, services.Wrap(services.ErrIO, "upload", "create", "create upload file", err)
	}
	n, copyErr := io.Copy(out, file)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dest)
		return upload{}, services.Wrap(services.ErrIO, "upload", "write", "store upload", err)
	}
	if n == 0 {
		_ = os.Remove(dest)
		return upload{}, services.Validationf("uploaded file is empty")
	}

	logging.WithContext(r.Context(), s.logger).Info("upload received",
		logging.String(logging.FieldEventType, "upload_received"),
		logging.String("original_name", header.Filename),
		logging.String("path", dest),
		logging.Int64("size_bytes", n),
	)
	return upload{path: dest, original: filepath.Base(header.Filename), size: n}, nil
}

// validFileName accepts a single path element that is neither a dot segment
// nor contains separators.
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// handleFile serves an artifact from the downloads directory as an
// attachment. Every lookup goes through an os.Root so names cannot escape it.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	logger := logging.WithContext(r.Context(), s.logger)
	if !validFileName(name) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	root, err := os.OpenRoot(s.cfg.Paths.DownloadsDir)
	if err != nil {
		s.fileError(w, logger, name, err)
		return
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		// Absent names and names that would leave the root both land here.
		logger.Debug("file lookup failed", logging.String("name", name), logging.Error(err))
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fileError(w, logger, name, err)
		return
	}
	if !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) fileError(w http.ResponseWriter, logger *slog.Logger, name string, err error) {
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	s.fail(w, logger, "file", services.Wrap(services.ErrIO, "file", "open", name, err))
}
