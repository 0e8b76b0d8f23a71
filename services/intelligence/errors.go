package ai

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingCredential = errors.New("Gemini API key is not configured")
	ErrUnsupportedImage  = errors.New("unsupported image type")
	ErrImageTooLarge     = errors.New("image is too large")
	ErrBusy              = errors.New("a request is already in progress for this session")
	ErrNotFound          = errors.New("analysis not found or expired")
	ErrEmptyResponse     = errors.New("the AI service returned no content")
)

// InputError names the field that failed validation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func missing(field string) error {
	return &InputError{Field: field, Reason: "is required"}
}

// VendorError wraps a failure reported by the generative API.
type VendorError struct {
	Op  string
	Err error
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }
