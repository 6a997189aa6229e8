package groww

import "fmt"

// CredentialError wraps a failed access-token fetch.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("groww: credential fetch failed: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the upstream API.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("groww: upstream returned %d: %s", e.Status, e.Body)
}

// NetworkError wraps a transport failure where no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("groww: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
