// Package job provides the Job aggregate for sticker conversion requests
// submitted over HTTP, the repository port that stores them and the
// ConvertService that runs them.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/stickerconv/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is waiting to be processed.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the job is being fetched and converted.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the sticker was written.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the job encountered an error during execution.
	StatusFailed Status = "FAILED"
)

// ErrorKind classifies why a job failed.
type ErrorKind string

const (
	// ErrorKindNone is used for jobs that have not failed.
	ErrorKindNone ErrorKind = ""
	// ErrorKindFetch means the source could not be retrieved.
	ErrorKindFetch ErrorKind = "fetch"
	// ErrorKindDecode means the source bytes were not a supported image.
	ErrorKindDecode ErrorKind = "decode"
	// ErrorKindEncode means the WebP encoder failed.
	ErrorKindEncode ErrorKind = "encode"
	// ErrorKindWrite means the sticker could not be persisted.
	ErrorKindWrite ErrorKind = "write"
	// ErrorKindInternal covers anything else.
	ErrorKindInternal ErrorKind = "internal"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Output describes the sticker produced by a completed job.
type Output struct {
	// Name is the artifact file name.
	Name string
	// Location is the file path or URL the artifact was written to.
	Location  string
	SizeBytes int
	Quality   int
	// Degraded is true when the size ceiling could not be met.
	Degraded   bool
	Animated   bool
	Frames     int
	DurationMs int
}

// Job represents a single sticker conversion request.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Source is the identifier to fetch: emote ID, URL or path.
	Source string
	// Name optionally overrides the name resolved from the source.
	Name string
	// Status is the current job state.
	Status Status
	// Output is set once the job completes.
	Output Output
	// Error contains the error message if the job failed.
	Error string
	// ErrorKind classifies the failure.
	ErrorKind ErrorKind
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job for source with a generated ID and IN_QUEUE status.
func New(source, name string) *Job {
	return NewWithID(id.Generate(), source, name)
}

// NewWithID creates a new Job with the specified ID and IN_QUEUE status.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID, source, name string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Source:    source,
		Name:      name,
		Status:    StatusInQueue,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete records out and transitions the job to COMPLETED.
func (j *Job) Complete(out Output) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	j.Output = out
	return nil
}

// Fail transitions the job to FAILED with a classified error message.
func (j *Job) Fail(kind ErrorKind, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.Error = errMsg
	j.ErrorKind = kind
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Source:      j.Source,
		Name:        j.Name,
		Status:      j.Status,
		Output:      j.Output,
		Error:       j.Error,
		ErrorKind:   j.ErrorKind,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
