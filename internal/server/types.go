// Package server provides the HTTP API for sticker conversion jobs.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// CreateStickerRequest is the HTTP request body for converting a sticker.
type CreateStickerRequest struct {
	// Source is an emote ID, an http(s) URL or a path readable by the server.
	Source string `json:"source" validate:"required,max=2048"`
	// Name overrides the sticker name derived from the source.
	Name string `json:"name,omitempty" validate:"omitempty,max=200"`
}

// CreateStickerResponse is the HTTP response after queuing a conversion.
type CreateStickerResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// StickerOutput describes the sticker written by a completed job.
type StickerOutput struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	SizeBytes  int    `json:"size_bytes"`
	Quality    int    `json:"quality"`
	Degraded   bool   `json:"degraded"`
	Animated   bool   `json:"animated"`
	Frames     int    `json:"frames"`
	DurationMs int    `json:"duration_ms,omitempty"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Source is the identifier the job was created with.
	Source string `json:"source"`
	// Sticker is set once the job has completed.
	Sticker *StickerOutput `json:"sticker,omitempty"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// ErrorKind classifies the failure (fetch, decode, encode, write, internal).
	ErrorKind string    `json:"error_kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListJobsResponse is the HTTP response for listing jobs.
type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
