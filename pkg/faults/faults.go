package faults

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error code. Callers branch on kinds,
// never on message text.
type Kind string

const (
	KindEmptyFile          Kind = "EMPTY_FILE"
	KindAlreadyComplete    Kind = "PROCESSING_ALREADY_COMPLETE"
	KindFileTooLarge       Kind = "FILE_TOO_LARGE"
	KindNotFound           Kind = "ENOENT"
	KindTargetExists       Kind = "TARGET_EXISTS"
	KindSourceTargetSame   Kind = "SOURCE_TARGET_SAME"
	KindAnotherInstance    Kind = "ANOTHER_INSTANCE_PROCESSING"
	KindLLMAPIError        Kind = "LLM_API_ERROR"
	KindTimeout            Kind = "TIMEOUT_ERROR"
	KindNetwork            Kind = "NETWORK_ERROR"
	KindNullResponseBody   Kind = "NULL_RESPONSE_BODY"
	KindStreamPrematureEnd Kind = "STREAM_PREMATURE_END"
	KindAborted            Kind = "ABORT_ERR"
	KindTokenizerNotFound  Kind = "TOKENIZER_NOT_FOUND"
	KindPoolShuttingDown   Kind = "POOL_SHUTTING_DOWN"
	KindPoolJobCancelled   Kind = "POOL_JOB_CANCELLED"
)

// Invalid builds the per-field validation kind, e.g. INVALID_CHUNK_SIZE.
func Invalid(field string) Kind {
	return Kind("INVALID_" + field)
}

// Error carries a stable kind next to the human-readable message.
// Status is the HTTP status for KindLLMAPIError, zero otherwise.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an error with the given kind and formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind from err, or "" if err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
