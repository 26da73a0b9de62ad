package catalog

import (
	"errors"
	"fmt"
)

// FetchError is the single failure kind a page can show: the request either
// got a non-success status or never completed.
type FetchError struct {
	// Resource names what was being fetched ("products", "product", ...).
	Resource string
	// StatusCode is the upstream status, 0 for transport failures.
	StatusCode int
	// Err is the transport or decoding error, nil for status failures.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch %s. Status: %d", e.Resource, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("Failed to fetch %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("Failed to fetch %s", e.Resource)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a FetchError for an upstream 404.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == 404
}
