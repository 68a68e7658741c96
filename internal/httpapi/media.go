package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"

	"mediakit/internal/jobs"
	"mediakit/internal/language"
	"mediakit/internal/logging"
	"mediakit/internal/services"
	"mediakit/internal/services/whisper"
	"mediakit/internal/services/ytdlp"
)

const maxJSONBody = 1 << 20

type urlRequest struct {
	URL      string `json:"url"`
	Format   string `json:"format,omitempty"`
	Quality  string `json:"quality,omitempty"`
	Language string `json:"language,omitempty"`
}

type downloadResponse struct {
	ytdlp.Download
	JobID  string `json:"jobId"`
	Mirror string `json:"mirror,omitempty"`
}

type transcribeResponse struct {
	whisper.Transcript
	JobID string `json:"jobId"`
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.Validationf("request body is empty")
		}
		return services.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

func resolveLanguage(code string) (string, error) {
	lang, err := language.Resolve(code)
	if err != nil {
		return "", fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	return lang, nil
}

// job carries the identifiers and logger for one ledger-tracked request.
type job struct {
	id     string
	kind   jobs.Kind
	ctx    context.Context
	logger *slog.Logger
}

func (s *Server) beginJob(r *http.Request, kind jobs.Kind, source string) job {
	id := uuid.NewString()
	ctx := services.WithJobID(r.Context(), id)
	s.recorder.Begin(ctx, id, kind, source)
	return job{id: id, kind: kind, ctx: ctx, logger: logging.WithContext(ctx, s.logger)}
}

func (s *Server) finishJob(j job, artifact, detail string, err error) {
	s.recorder.Finish(j.ctx, j.id, j.kind, artifact, detail, err)
}

// mirrorArtifact uploads the artifact when a mirror is configured. Failures
// are reported in the ledger detail and never fail the request.
func (s *Server) mirrorArtifact(j job, path string) (location, detail string) {
	if !s.mirror.Enabled() {
		return "", ""
	}
	location, err := s.mirror.Publish(j.ctx, path)
	if err != nil {
		return "", "mirror failed: " + services.UserMessage(err)
	}
	return location, "mirrored to " + location
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	var req urlRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, logger, "info", err)
		return
	}
	info, err := s.media.Info(r.Context(), req.URL)
	if err != nil {
		s.fail(w, logger, "info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, logging.WithContext(r.Context(), s.logger), "download", err)
		return
	}
	if _, err := ytdlp.ValidateURL(req.URL); err != nil {
		s.fail(w, logging.WithContext(r.Context(), s.logger), "download", err)
		return
	}

	j := s.beginJob(r, jobs.KindDownload, req.URL)
	dl, err := s.media.Download(j.ctx, ytdlp.DownloadRequest{
		URL:     req.URL,
		Format:  req.Format,
		Quality: req.Quality,
	})
	if err != nil {
		s.finishJob(j, "", "", err)
		s.fail(w, j.logger, "download", err)
		return
	}
	location, detail := s.mirrorArtifact(j, dl.Path)
	s.finishJob(j, dl.Filename, detail, nil)
	writeJSON(w, http.StatusOK, downloadResponse{Download: dl, JobID: j.id, Mirror: location})
}

func (s *Server) handleTranscribeURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, logging.WithContext(r.Context(), s.logger), "transcribe-url", err)
		return
	}
	if _, err := ytdlp.ValidateURL(req.URL); err != nil {
		s.fail(w, logging.WithContext(r.Context(), s.logger), "transcribe-url", err)
		return
	}
	lang, err := resolveLanguage(req.Language)
	if err != nil {
		s.fail(w, logging.WithContext(r.Context(), s.logger), "transcribe-url", err)
		return
	}

	j := s.beginJob(r, jobs.KindTranscribe, req.URL)
	audio, err := s.media.Download(j.ctx, ytdlp.DownloadRequest{
		URL:     req.URL,
		Format:  ytdlp.FormatMP3,
		Quality: ytdlp.QualityBestAudio,
	})
	if err != nil {
		s.finishJob(j, "", "", err)
		s.fail(w, j.logger, "transcribe-url", err)
		return
	}
	s.transcribe(w, j, audio.Path, lang)
}

func (s *Server) handleTranscribeFile(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	upload, err := s.receiveUpload(w, r, allowedMediaExt)
	if err != nil {
		s.fail(w, logger, "transcribe-file", err)
		return
	}
	defer s.discardUpload(logger, upload.path)

	lang, err := resolveLanguage(r.FormValue("language"))
	if err != nil {
		s.fail(w, logger, "transcribe-file", err)
		return
	}

	j := s.beginJob(r, jobs.KindTranscribe, upload.original)
	s.transcribe(w, j, upload.path, lang)
}

func (s *Server) transcribe(w http.ResponseWriter, j job, audioPath, lang string) {
	transcript, err := s.transcriber.Transcribe(j.ctx, audioPath, lang)
	if err != nil {
		s.finishJob(j, "", "", err)
		s.fail(w, j.logger, "transcribe", err)
		return
	}
	detail := "language " + transcript.Language
	s.finishJob(j, "", detail, nil)
	writeJSON(w, http.StatusOK, transcribeResponse{Transcript: transcript, JobID: j.id})
}

func (s *Server) discardUpload(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "failed to remove upload", "upload_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the retention sweeper will remove it later"),
			logging.String(logging.FieldImpact, "upload directory keeps the file until the next sweep"),
		)
	}
}
