package domain

import "github.com/cockroachdb/errors"

// Common domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrResumeHasLogs     = errors.New("resume has status log entries")
	ErrRecruiterNotFound = errors.New("recruiter record missing during status transition")
)
