package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableDocument means neither the native text layer nor OCR
	// produced usable text. Terminal; the uploader should retry with a
	// better scan.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrExtractionFailed is an OCR engine fault (crash, timeout) after the
	// internal retry. The pipeline escalates it to ErrUnreadableDocument.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrSchemaViolation means the model returned output that does not match
	// the profile schema.
	ErrSchemaViolation = errors.New("schema violation")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidStatusChange  = errors.New("invalid status change")
)

type RetryableError struct {
	Err     error
	Message string
}

func (e RetryableError) Error() string {
	return fmt.Sprintf("retryable: %s: %s", e.Message, e.Err.Error())
}

func (e RetryableError) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error, message string) error {
	return RetryableError{Err: err, Message: message}
}

// IsRetryable reports whether err (or anything it wraps) was marked
// retryable, e.g. a timeout or a 5xx-equivalent fault.
func IsRetryable(err error) bool {
	var re RetryableError
	return errors.As(err, &re)
}
