package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"call-quality-go/internal/config"
	"call-quality-go/internal/dataset"
	"call-quality-go/internal/history"
	"call-quality-go/internal/logger"
	"call-quality-go/internal/metrics"
	"call-quality-go/internal/processor"
	"call-quality-go/internal/types"
)

const maxBodyBytes = 8 << 20

type Server struct {
	proc    *processor.Processor
	metrics *metrics.Metrics
	log     *logger.Logger
}

func New(proc *processor.Processor, m *metrics.Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{proc: proc, metrics: m, log: log.Component("httpapi")}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.Post("/v1/calls", s.handleProcess)
	r.Post("/v1/calls/batch", s.handleBatch)
	r.Post("/v1/calls/import", s.handleImport)
	r.Get("/v1/calls", s.handleList)
	r.Get("/v1/dashboard", s.handleDashboard)
	r.Get("/v1/export.xlsx", s.handleExport)

	return r
}

// observe logs each request and counts it by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(route, status)
		s.log.WithRequest(r).
			WithField("status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Debug("request served")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req types.CallRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := validate(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_threshold", err.Error())
		return
	}

	res, err := s.proc.ProcessAudio(r.Context(), req)
	if err != nil {
		s.log.WithRequest(r).WithError(err).Warn("call not processed")
		status := http.StatusBadGateway
		if errors.Is(err, processor.ErrNoTranscriber) {
			status = http.StatusUnprocessableEntity
		}
		respondError(w, status, "transcription_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []types.CallRequest
	if err := decodeJSON(r, &reqs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	for i, req := range reqs {
		if err := validate(req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_threshold", fmt.Sprintf("item %d: %v", i, err))
			return
		}
	}
	s.respondBatch(w, r, reqs)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	reqs, err := dataset.ReadTranscripts(bytes.NewReader(body))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_workbook", err.Error())
		return
	}
	for i, req := range reqs {
		if err := validate(req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_threshold", fmt.Sprintf("row %d: %v", i+2, err))
			return
		}
	}
	s.respondBatch(w, r, reqs)
}

func (s *Server) respondBatch(w http.ResponseWriter, r *http.Request, reqs []types.CallRequest) {
	results, err := s.proc.ProcessBatch(r.Context(), reqs)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "batch_aborted", err.Error())
		return
	}
	if results == nil {
		results = []processor.Result{}
	}
	respondJSON(w, http.StatusCreated, results)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.proc.History(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	if v := r.URL.Query().Get("flagged"); v != "" {
		flagged, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_query", "flagged must be a boolean")
			return
		}
		if flagged {
			records = history.Flagged(records)
		}
	}
	if records == nil {
		records = []types.CallRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.proc.Dashboard(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.proc.Export(r.Context(), &buf); err != nil {
		respondError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="call-quality.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func validate(req types.CallRequest) error {
	if req.ReviewThreshold == nil {
		return nil
	}
	return config.ValidateThreshold(*req.ReviewThreshold)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
