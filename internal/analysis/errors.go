package analysis

import (
	"errors"
	"fmt"

	"github.com/starford/notelens/internal/deepseek"
)

var (
	// ErrNoActiveDocument means no source note was given or it does not exist.
	ErrNoActiveDocument = errors.New("analysis: no active document")
	// ErrMissingCredential means the API key setting is empty.
	ErrMissingCredential = errors.New("analysis: missing api key")
	// ErrUnexpected wraps every failure that has no more specific kind.
	ErrUnexpected = errors.New("analysis: unexpected failure")
)

// Error kinds as reported by Classify.
const (
	KindNoActiveDocument  = "no_active_document"
	KindMissingCredential = "missing_credential"
	KindRemoteAPI         = "remote_api_error"
	KindNetwork           = "network_error"
	KindUnexpected        = "unexpected"
)

// Classify maps err to its kind name. It returns "" for a nil error.
func Classify(err error) string {
	var (
		apiErr *deepseek.APIError
		netErr *deepseek.NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoActiveDocument):
		return KindNoActiveDocument
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.As(err, &apiErr):
		return KindRemoteAPI
	case errors.As(err, &netErr):
		return KindNetwork
	default:
		return KindUnexpected
	}
}

// Message returns the human-readable text used in failure notices. Remote
// errors carry the HTTP status, e.g. "API Error 401: bad key".
func Message(err error) string {
	var (
		apiErr *deepseek.APIError
		netErr *deepseek.NetworkError
	)
	switch {
	case errors.As(err, &apiErr) && (apiErr.Status < 200 || apiErr.Status > 299) && apiErr.Status != 0:
		return fmt.Sprintf("API Error %d: %s", apiErr.Status, apiErr.Message)
	case errors.As(err, &apiErr):
		// A 2xx reply whose body failed the schema check.
		return "API Error: " + apiErr.Message
	case errors.As(err, &netErr):
		return "network error: " + netErr.Err.Error()
	default:
		return err.Error()
	}
}
