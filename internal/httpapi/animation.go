package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mediakit/internal/bootanim"
	"mediakit/internal/jobs"
	"mediakit/internal/logging"
	"mediakit/internal/services"
	"mediakit/internal/services/ytdlp"
)

type bootAnimationResponse struct {
	JobID       string `json:"jobId"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	Frames      int    `json:"frames"`
	Resolution  string `json:"resolution"`
	FPS         int    `json:"fps"`
	Loop        int    `json:"loop"`
	Name        string `json:"name"`
	DownloadURL string `json:"downloadUrl"`
	Mirror      string `json:"mirror,omitempty"`
}

// formInt parses an optional integer form field. Blank means zero, which the
// builder replaces with its default.
func formInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.Validationf("%s must be an integer", key)
	}
	return v, nil
}

func bootParams(r *http.Request) (bootanim.Params, error) {
	var p bootanim.Params
	var err error
	if p.Width, err = formInt(r, "width"); err != nil {
		return p, err
	}
	if p.Height, err = formInt(r, "height"); err != nil {
		return p, err
	}
	if p.FPS, err = formInt(r, "fps"); err != nil {
		return p, err
	}
	if p.Loop, err = formInt(r, "loop"); err != nil {
		return p, err
	}
	p.Name = r.FormValue("name")
	return p, nil
}

func (s *Server) handleBootAnimation(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	upload, err := s.receiveUpload(w, r, allowedVideoExt)
	if err != nil {
		s.fail(w, logger, "bootanimation", err)
		return
	}
	defer s.discardUpload(logger, upload.path)

	params, err := bootParams(r)
	if err != nil {
		s.fail(w, logger, "bootanimation", err)
		return
	}

	j := s.beginJob(r, jobs.KindBootAnimation, upload.original)
	result, err := s.builder.Build(j.ctx, bootanim.Request{
		JobID:  j.id,
		Source: upload.path,
		Params: params,
	})
	if err != nil {
		s.finishJob(j, "", "", err)
		s.fail(w, j.logger, "bootanimation", err)
		return
	}

	detail := fmt.Sprintf("%s@%dfps, %d frames", result.Params.Resolution(), result.Params.FPS, result.Frames)
	location, mirrorDetail := s.mirrorArtifact(j, result.Path)
	if mirrorDetail != "" {
		detail += "; " + mirrorDetail
	}
	s.finishJob(j, result.Filename, detail, nil)

	writeJSON(w, http.StatusOK, bootAnimationResponse{
		JobID:       result.JobID,
		Filename:    result.Filename,
		Size:        result.Size,
		Frames:      result.Frames,
		Resolution:  result.Params.Resolution(),
		FPS:         result.Params.FPS,
		Loop:        result.Params.Loop,
		Name:        result.Params.Name,
		DownloadURL: ytdlp.FileURL(result.Filename),
		Mirror:      location,
	})
}
