package pipeline

import (
	"fmt"

	"cadence/internal/services"
)

// SegmentError is the terminal error of a failed lesson build. SegmentID is
// empty when the failure happened after all segments were assembled.
type SegmentError struct {
	LessonID  string
	SegmentID string
	Kind      string
	Err       error
}

func newSegmentError(lessonID, segmentID string, err error) *SegmentError {
	return &SegmentError{
		LessonID:  lessonID,
		SegmentID: segmentID,
		Kind:      services.Kind(err),
		Err:       err,
	}
}

func (e *SegmentError) Error() string {
	if e.SegmentID == "" {
		return fmt.Sprintf("lesson %s: %s: %v", e.LessonID, e.Kind, e.Err)
	}
	return fmt.Sprintf("lesson %s segment %s: %s: %v", e.LessonID, e.SegmentID, e.Kind, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}
