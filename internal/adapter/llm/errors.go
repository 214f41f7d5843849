package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindRateLimited   ErrorKind = "rate_limited"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindTimeout       ErrorKind = "timeout"
	KindEmptyResponse ErrorKind = "empty_response"
	KindUpstream      ErrorKind = "upstream"
)

// ConfigurationError is returned before any network call when a provider is missing
// a required setting.
type ConfigurationError struct {
	Provider string
	Setting  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s provider is not configured: %s is required", e.Provider, e.Setting)
}

// ProviderError is a failed call to a vendor API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Kind       ErrorKind
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error [%d]: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newStatusError builds the error for a non-success HTTP status.
func newStatusError(provider string, status int, body string) *ProviderError {
	kind := KindUpstream
	switch status {
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &ProviderError{Provider: provider, StatusCode: status, Kind: kind, Message: truncate(body, 512)}
}

// newTransportError builds the error for a request that never got a usable status.
func newTransportError(provider string, err error) *ProviderError {
	kind := KindUpstream
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, Message: err.Error(), Err: err}
}

func newEmptyResponseError(provider string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindEmptyResponse, Message: "no response content"}
}

// Classify returns the kind of a provider failure. Unknown errors are upstream errors.
func Classify(err error) ErrorKind {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return KindConfiguration
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUpstream
}

// StatusCode returns the vendor HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode
	}
	return 0
}

// IsRateLimited reports whether err is a vendor 429.
func IsRateLimited(err error) bool {
	return Classify(err) == KindRateLimited
}

// IsUnauthorized reports whether err is a vendor 401.
func IsUnauthorized(err error) bool {
	return Classify(err) == KindUnauthorized
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
