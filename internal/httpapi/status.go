package httpapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mediakit/internal/deps"
	"mediakit/internal/jobs"
	"mediakit/internal/language"
	"mediakit/internal/logging"
	"mediakit/internal/preflight"
	"mediakit/internal/services"
)

type statusResponse struct {
	Ready        bool                `json:"ready"`
	PID          int                 `json:"pid"`
	StartedAt    time.Time           `json:"started_at"`
	Uptime       string              `json:"uptime"`
	Dependencies []deps.Status       `json:"dependencies"`
	Checks       []preflight.Result  `json:"checks"`
	Jobs         map[jobs.Status]int `json:"jobs,omitempty"`
	Publish      bool                `json:"publish"`
	Metrics      bool                `json:"metrics"`
}

type jobsResponse struct {
	Jobs []jobs.Record `json:"jobs"`
}

type languagesResponse struct {
	Languages []language.Option `json:"languages"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var report preflight.Report
	if s.status != nil {
		report = s.status(r.Context())
	} else {
		report = preflight.Run(r.Context(), s.cfg, nil)
	}
	resp := statusResponse{
		Ready:        report.Ready(),
		PID:          os.Getpid(),
		StartedAt:    s.startedAt.UTC(),
		Uptime:       time.Since(s.startedAt).Truncate(time.Second).String(),
		Dependencies: report.Dependencies,
		Checks:       report.Checks,
		Publish:      s.mirror.Enabled(),
		Metrics:      s.cfg.Metrics.Enabled && s.metrics != nil,
	}
	if store := s.recorder.Store(); store != nil {
		counts, err := store.Counts(r.Context())
		if err != nil {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "job counts unavailable", "ledger_read_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "status omits job counts"),
			)
		} else {
			resp.Jobs = counts
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context(), s.logger)
	query := r.URL.Query()
	var filter jobs.Filter
	for _, raw := range query["kind"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			kind, ok := jobs.ParseKind(part)
			if !ok {
				s.fail(w, logger, "jobs", services.Validationf("unknown job kind %q", part))
				return
			}
			filter.Kinds = append(filter.Kinds, kind)
		}
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.fail(w, logger, "jobs", services.Validationf("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	store := s.recorder.Store()
	if store == nil {
		writeJSON(w, http.StatusOK, jobsResponse{Jobs: []jobs.Record{}})
		return
	}
	records, err := store.List(r.Context(), filter)
	if err != nil {
		s.fail(w, logger, "jobs", services.Wrap(services.ErrIO, "jobs", "list", "read job ledger", err))
		return
	}
	if records == nil {
		records = []jobs.Record{}
	}
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: records})
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, languagesResponse{Languages: language.Supported()})
}
