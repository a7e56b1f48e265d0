package errcodes

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// Codes checked across package boundaries.
const (
	CodeAmbiguousAuthorReference  = "ambiguous_author_reference"
	CodeDuplicateCopyPending      = "duplicate_copy_pending"
	CodeExternalSourceUnavailable = "external_source_unavailable"
	CodeInvalidMultiVolumeRequest = "invalid_multivolume_request"
	CodeNotFound                  = "not_found"
	CodeShelfResolutionFailure    = "shelf_resolution_failure"
)

// HasCode reports whether err is an *Error with the given code, regardless
// of its message. Useful for errors with variable messages.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		CodeNotFound,
	}
}

// ExternalSourceUnavailable returns a 503 error indicating that the live
// fetch failed and no cached fallback exists. It's retryable by the caller.
func ExternalSourceUnavailable() error {
	return &Error{
		http.StatusServiceUnavailable,
		"The bibliographic source is unavailable and no cached data exists.",
		CodeExternalSourceUnavailable,
	}
}

// AmbiguousAuthorReference returns a 422 error indicating that no author
// could be matched or created from the given reference. The caller should
// prompt for disambiguation.
func AmbiguousAuthorReference() error {
	return &Error{
		http.StatusUnprocessableEntity,
		"Author reference is ambiguous: no matching author and no usable name or identifier to create one.",
		CodeAmbiguousAuthorReference,
	}
}

// InvalidMultiVolumeRequest returns a 422 error for entry types that are
// inconsistent with the supplied volume data.
func InvalidMultiVolumeRequest(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		CodeInvalidMultiVolumeRequest,
	}
}

// DuplicateCopyPending returns a 409 signal indicating the work already has
// shelved copies and the caller must confirm before another copy is written.
// It's a control signal, not a failure, and is never logged as an error.
func DuplicateCopyPending(copyCount int) error {
	return &Error{
		http.StatusConflict,
		fmt.Sprintf("This work already has %d cataloged cop%s. Confirm to add another.", copyCount, plural(copyCount, "y", "ies")),
		CodeDuplicateCopyPending,
	}
}

// ShelfResolutionFailure indicates a shelf reference that doesn't resolve to
// a complete location chain. The catalog writer downgrades it to an
// unshelved copy instead of surfacing it.
func ShelfResolutionFailure(shelfID int) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Shelf %d does not resolve to a complete location chain.", shelfID),
		CodeShelfResolutionFailure,
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
