package deepseek

import "fmt"

// APIError is returned when the remote service answers with a non-2xx
// status or with a body that does not match the expected schema.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("deepseek: %s", e.Message)
	}
	return fmt.Sprintf("deepseek: status %d: %s", e.Status, e.Message)
}

// NetworkError is returned when the request could not be sent or the
// response could not be read.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("deepseek: network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
