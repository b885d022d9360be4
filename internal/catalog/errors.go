package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed catalog operation
type ErrorKind int

const (
	// KindNetwork indicates no usable response at all, including a failed
	// relay fallback after a cross-origin block.
	KindNetwork ErrorKind = iota

	// KindUnauthorized indicates credentials are missing or wrong (401/403)
	KindUnauthorized

	// KindRateLimited indicates the server asked us to back off (429)
	KindRateLimited

	// KindNotFound indicates the feed does not exist (404)
	KindNotFound

	// KindMalformed indicates a response was received but could not be decoded
	KindMalformed

	// KindParse indicates well-formed bytes with unrecognized or invalid structure
	KindParse

	// KindChainTooLong indicates an acquisition chain exceeded the hop bound
	KindChainTooLong
)

// String returns the user-facing classification of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "authentication required"
	case KindRateLimited:
		return "rate limited"
	case KindNotFound:
		return "not found"
	case KindMalformed:
		return "unreadable response"
	case KindParse:
		return "unrecognized feed structure"
	case KindChainTooLong:
		return "acquisition chain too long"
	default:
		return "network error"
	}
}

// Error is the classified failure surfaced to consumers. It carries enough
// structure to render a specific message without string matching.
type Error struct {
	Kind    ErrorKind
	Message string // Human-readable detail
	URL     string // Original request URL
	Status  int    // HTTP status, 0 when no response was received
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

// NewError builds a classified error
func NewError(kind ErrorKind, url, message string) *Error {
	return &Error{Kind: kind, Message: message, URL: url}
}

// ClassifyStatus maps an HTTP status code to an error kind
func ClassifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindNetwork
	}
}

// StatusError builds a classified error from a response status
func StatusError(status int, url string) *Error {
	return &Error{
		Kind:    ClassifyStatus(status),
		Message: fmt.Sprintf("server returned %d", status),
		URL:     url,
		Status:  status,
	}
}

// KindOf extracts the classification from err, defaulting to KindNetwork
// for unclassified failures.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindNetwork
}

// IsKind reports whether err carries the given classification
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
