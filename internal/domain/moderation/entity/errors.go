package entity

import (
	"errors"
	"fmt"
)

// Domain errors for moderation
var (
	ErrPermissionDenied  = errors.New("caller is not a moderator")
	ErrEmptyReason       = errors.New("reason cannot be empty")
	ErrInvalidActionType = errors.New("unknown moderation action type")
	ErrInvalidCategory   = errors.New("unknown report category")
	ErrMissingTarget     = errors.New("report must name a user or a post")
	ErrReportNotFound    = errors.New("report not found")
	ErrPostNotFound      = errors.New("post not found")
)

// PartialFailureError reports a multi-step write where an earlier step
// committed and a later one failed. The committed step is not rolled back.
type PartialFailureError struct {
	Committed string // the step that succeeded and stays committed
	Failed    string // the step that failed
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s committed but %s failed: %v", e.Committed, e.Failed, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
