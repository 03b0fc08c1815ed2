package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/stickerconv/internal/job"
)

// maxRequestBytes bounds the JSON body of POST /stickers.
const maxRequestBytes = 64 << 10

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.ConvertService
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateSticker only queues the job.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.ConvertService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateSticker handles POST /stickers requests.
func (h *Handlers) CreateSticker(w http.ResponseWriter, r *http.Request) {
	var req CreateStickerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	createdJob, err := h.service.CreateJob(r.Context(), job.ConvertInput{
		Source: req.Source,
		Name:   req.Name,
	})
	if err != nil {
		if errors.Is(err, job.ErrSourceRequired) {
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
		h.logger.Error("failed to create job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	// The conversion outlives the request.
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string) {
			if _, err := h.service.ProcessExistingJob(ctx, jobID); err != nil {
				h.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID)
	}

	h.logger.Info("job created",
		slog.String("job_id", createdJob.ID),
		slog.String("source", createdJob.Source),
		slog.String("request_id", RequestIDFromContext(r.Context())),
	)

	writeJSON(w, http.StatusAccepted, CreateStickerResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// GetJob handles GET /stickers/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(foundJob))
}

// ListJobs handles GET /stickers requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := ListJobsResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Status:    string(j.Status),
		Source:    j.Source,
		Error:     j.Error,
		ErrorKind: string(j.ErrorKind),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Status == job.StatusCompleted {
		out := j.Output
		resp.Sticker = &StickerOutput{
			Name:       out.Name,
			Location:   out.Location,
			SizeBytes:  out.SizeBytes,
			Quality:    out.Quality,
			Degraded:   out.Degraded,
			Animated:   out.Animated,
			Frames:     out.Frames,
			DurationMs: out.DurationMs,
		}
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
