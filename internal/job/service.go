package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maauso/stickerconv/internal/fetch"
	"github.com/maauso/stickerconv/internal/sticker"
)

// ErrSourceRequired is returned when a job is requested without a source.
var ErrSourceRequired = errors.New("source is required")

// Converter turns source bytes into a persisted sticker.
type Converter interface {
	Convert(ctx context.Context, src []byte, name string, hint sticker.Hint) (*sticker.Result, error)
}

// ConvertInput contains the parameters of a conversion request.
type ConvertInput struct {
	// Source is an emote ID, an http(s) URL or a local path.
	Source string
	// Name overrides the name resolved from the source when set.
	Name string
}

// ConvertOutput contains the result of a processed job.
type ConvertOutput struct {
	// JobID is the unique identifier for the job.
	JobID string
	// Status is the final job status.
	Status Status
	// Output is set when Status is COMPLETED.
	Output Output
	// Error contains the error message if processing failed.
	Error     string
	ErrorKind ErrorKind
}

// ConvertService runs conversion jobs: it fetches the source, converts it
// and records the outcome on the job.
type ConvertService struct {
	repo      Repository
	fetcher   fetch.Fetcher
	converter Converter
	logger    *slog.Logger
	// names keeps concurrent jobs from writing over each other's artifacts.
	names *sticker.NameSet
}

// NewConvertService creates a new ConvertService.
func NewConvertService(repo Repository, fetcher fetch.Fetcher, converter Converter, logger *slog.Logger) *ConvertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertService{
		repo:      repo,
		fetcher:   fetcher,
		converter: converter,
		logger:    logger,
		names:     sticker.NewNameSet(),
	}
}

// CreateJob creates a new job and persists it to the repository.
// The job is created in IN_QUEUE status, ready for processing.
func (s *ConvertService) CreateJob(ctx context.Context, input ConvertInput) (*Job, error) {
	source := strings.TrimSpace(input.Source)
	if source == "" {
		return nil, ErrSourceRequired
	}

	job := New(source, strings.TrimSpace(input.Name))

	s.logger.Info("creating new job",
		slog.String("job_id", job.ID),
		slog.String("source", job.Source),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return job, nil
}

// GetJob retrieves a job by ID.
func (s *ConvertService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// Process creates a job for input and runs it to completion.
func (s *ConvertService) Process(ctx context.Context, input ConvertInput) (*ConvertOutput, error) {
	job, err := s.CreateJob(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.ProcessExistingJob(ctx, job.ID)
}

// ProcessExistingJob runs a queued job. Conversion failures are recorded on
// the job and reported in the output; the returned error is reserved for
// repository and state machine problems.
func (s *ConvertService) ProcessExistingJob(ctx context.Context, jobID string) (*ConvertOutput, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := job.Start(); err != nil {
		return nil, fmt.Errorf("start job %s: %w", jobID, err)
	}
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	log := s.logger.With(slog.String("job_id", job.ID), slog.String("source", job.Source))
	log.Info("processing job")

	out, convErr := s.run(ctx, job)
	if convErr != nil {
		kind := ClassifyError(convErr)
		log.Error("job failed",
			slog.String("kind", string(kind)),
			slog.String("error", convErr.Error()),
		)
		if err := job.Fail(kind, convErr.Error()); err != nil {
			return nil, err
		}
	} else {
		log.Info("job completed",
			slog.String("location", out.Location),
			slog.Int("size_bytes", out.SizeBytes),
			slog.Int("quality", out.Quality),
			slog.Bool("degraded", out.Degraded),
		)
		if err := job.Complete(out); err != nil {
			return nil, err
		}
	}

	// The job outcome must be recorded even if the caller has gone away.
	if err := s.repo.Save(context.WithoutCancel(ctx), job); err != nil {
		return nil, err
	}

	snapshot := job.Clone()
	return &ConvertOutput{
		JobID:     snapshot.ID,
		Status:    snapshot.Status,
		Output:    snapshot.Output,
		Error:     snapshot.Error,
		ErrorKind: snapshot.ErrorKind,
	}, nil
}

func (s *ConvertService) run(ctx context.Context, job *Job) (Output, error) {
	src, err := s.fetcher.Fetch(ctx, job.Source)
	if err != nil {
		return Output{}, err
	}

	name := job.Name
	if name == "" {
		name = src.Name
	}
	name = s.names.Reserve(name)

	res, err := s.converter.Convert(ctx, src.Data, name, src.Hint)
	if err != nil {
		s.names.Release(name)
		return Output{}, err
	}

	return Output{
		Name:       res.Name,
		Location:   res.Path,
		SizeBytes:  res.SizeBytes,
		Quality:    res.Quality,
		Degraded:   res.Degraded,
		Animated:   res.Animated,
		Frames:     res.Frames,
		DurationMs: res.DurationMs,
	}, nil
}

// ClassifyError maps a pipeline error to its ErrorKind.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, fetch.ErrFetch):
		return ErrorKindFetch
	case errors.Is(err, sticker.ErrDecode):
		return ErrorKindDecode
	case errors.Is(err, sticker.ErrEncode):
		return ErrorKindEncode
	case errors.Is(err, sticker.ErrWrite):
		return ErrorKindWrite
	default:
		return ErrorKindInternal
	}
}

// ListJobs returns every known job, oldest first.
func (s *ConvertService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}
