// Package id provides unique identifier generation for conversion jobs.
package id

import (
	"github.com/google/uuid"
)

// Generate creates a new unique job ID.
// Format: job-<uuidv7>, so IDs sort by creation time.
// Example: job-01920f8e-7c1a-7b3e-9d52-4f0c1e2a3b4c
func Generate() string {
	u, err := uuid.NewV7()
	if err != nil {
		// Fall back to a random UUID if the clock sequence cannot be read
		u = uuid.New()
	}
	return "job-" + u.String()
}
