package services

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessingFailed matches every transform failure returned by Processor.
	ErrProcessingFailed = errors.New("processing failed")
	ErrInvalidRotation  = errors.New("rotation must be 90, 180 or 270 degrees")
)

// ProcessingError carries the tool that failed and the underlying cause.
type ProcessingError struct {
	Tool  string
	Cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed for tool %q: %v", e.Tool, e.Cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessingFailed
}
