package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oapi-codegen/runtime"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
	"reliefcheck/internal/workers/investigationrunner"
)

const (
	ServiceName    = "Disaster Relief Verification System"
	ServiceVersion = "1.0.0"

	maxUploadBytes      = 20 << 20
	defaultWaitSeconds  = 30
	defaultAllowOrigins = "http://localhost:3000,http://localhost:5173"
)

// Intake queues uploaded images for background investigation.
type Intake interface {
	Enqueue(ctx context.Context, img domain.Image) (domain.Job, error)
	Status(ctx context.Context, jobID string) (domain.Job, error)
}

// Deps are the services the HTTP surface is built on. Intake, Jobs,
// Processor and Metrics are optional; their routes answer 503 or are not
// mounted when nil.
type Deps struct {
	Investigator ports.Investigator
	Cases        ports.Cases
	Intake       Intake
	Jobs         ports.JobRepository
	Processor    investigationrunner.Processor
	Metrics      http.Handler
	AllowOrigins []string
	Logger       *slog.Logger
}

type Server struct {
	deps Deps
	log  *slog.Logger
}

func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	origins := deps.AllowOrigins
	if origins == nil {
		origins = strings.Split(defaultAllowOrigins, ",")
	}
	deps.AllowOrigins = make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			deps.AllowOrigins = append(deps.AllowOrigins, o)
		}
	}
	return &Server{deps: deps, log: log}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.deps.AllowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.getIndex)
	r.Get("/health", s.getHealth)
	r.Get("/healthz", s.getHealthz)
	r.Post("/verify", s.postVerify)
	r.Post("/investigations", s.postInvestigation)
	r.Get("/investigations/{jobId}", s.getInvestigation)
	r.Get("/cases/{caseId}", s.getCase)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}
	return r
}

func (s *Server) getIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": ServiceName,
		"version": ServiceVersion,
		"endpoints": map[string]string{
			"verify":         "/verify (POST) - Upload image for verification",
			"investigations": "/investigations (POST) - Queue image for background verification",
			"cases":          "/cases/{case_id} - Recorded case file",
			"health":         "/health - Health check",
		},
	})
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postVerify(w http.ResponseWriter, r *http.Request) {
	img, ok := s.readImage(w, r)
	if !ok {
		return
	}
	var format string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := s.deps.Investigator.Investigate(r.Context(), img)
	if report.Status == domain.ReportError {
		writeError(w, http.StatusInternalServerError, "Error during investigation: "+report.Error)
		return
	}
	if format == "report" {
		writeJSON(w, http.StatusOK, report)
		return
	}
	writeJSON(w, http.StatusOK, Transform(report))
}

type acceptedResponse struct {
	JobID  string `json:"job_id"`
	CaseID string `json:"case_id"`
}

func (s *Server) postInvestigation(w http.ResponseWriter, r *http.Request) {
	if s.deps.Intake == nil {
		writeError(w, http.StatusServiceUnavailable, "background investigations are not enabled")
		return
	}
	var wait *bool
	var timeout *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "wait", q, &wait); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "timeout", q, &timeout); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, ok := s.readImage(w, r)
	if !ok {
		return
	}
	job, err := s.deps.Intake.Enqueue(r.Context(), img)
	if err != nil {
		s.log.Error("enqueue investigation", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	accepted := acceptedResponse{JobID: job.ID, CaseID: job.CaseID}
	if wait == nil || !*wait || s.deps.Jobs == nil || s.deps.Processor == nil {
		writeJSON(w, http.StatusAccepted, accepted)
		return
	}

	secs := defaultWaitSeconds
	if timeout != nil && *timeout > 0 {
		secs = *timeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(secs)*time.Second)
	defer cancel()
	report, err := investigationrunner.ProcessInline(ctx, s.deps.Jobs, s.deps.Processor, job.ID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		// A worker claimed the job first.
		writeJSON(w, http.StatusAccepted, accepted)
	case report.Status == domain.ReportError:
		writeError(w, http.StatusInternalServerError, "Error during investigation: "+report.Error)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) getInvestigation(w http.ResponseWriter, r *http.Request) {
	if s.deps.Intake == nil {
		writeError(w, http.StatusServiceUnavailable, "background investigations are not enabled")
		return
	}
	var jobID string
	if err := bindPath(r, "jobId", &jobID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.deps.Intake.Status(r.Context(), jobID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	var caseID string
	if err := bindPath(r, "caseId", &caseID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.deps.Cases.Get(r.Context(), caseID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Case not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// readImage reads the multipart "file" field. It writes the error response
// itself and reports false when the upload is unusable.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (domain.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing file upload: %v", err))
		return domain.Image{}, false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "File must be an image")
		return domain.Image{}, false
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return domain.Image{}, false
	}
	return domain.Image{Data: data, Filename: header.Filename, ContentType: contentType}, true
}

func bindPath(r *http.Request, name string, dest *string) error {
	return runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
