package core

import (
	"errors"
	"fmt"
)

// ErrInvalidFlexURL reports a flex URL whose fragment does not carry a
// pullsheet UUID in its second segment.
var ErrInvalidFlexURL = errors.New("invalid Flex URL format")

// ConflictError reports that the pullsheet has already been imported. JobID
// is the existing job when it could be determined; nil when the conflicting
// row vanished between the failed insert and the re-read.
type ConflictError struct {
	JobID *int64
}

func (e *ConflictError) Error() string {
	if e.JobID != nil {
		return fmt.Sprintf("pullsheet already imported as job %d", *e.JobID)
	}
	return "pullsheet already imported"
}

// ValidationError reports invalid caller input. The message is safe to
// return to clients.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
