package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ProviderError is a failed call to a model provider.
//
// Code is machine readable: rate_limited, invalid_api_key, quota_exceeded,
// server_error, network_error, timeout, bad_request, empty_response,
// blocked or api_error. Retryable marks transient failures; nothing in
// this module retries, but callers may.
type ProviderError struct {
	Provider  string
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}

// ClassifyError maps an SDK error to a ProviderError.
//
// status is the HTTP status when the SDK exposes one (0 otherwise); the
// error text is inspected when it does not. Context cancellation is
// returned unchanged so callers can match it with errors.Is.
func ClassifyError(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: provider, Code: "timeout", Message: "request timed out", Retryable: true, Err: err}
	}

	pe := &ProviderError{Provider: provider, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		pe.Code, pe.Message, pe.Retryable = "rate_limited", "rate limit exceeded", true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		pe.Code, pe.Message = "invalid_api_key", "API key is invalid or expired"
	case status == http.StatusPaymentRequired:
		pe.Code, pe.Message = "quota_exceeded", "quota exceeded"
	case status >= 500:
		pe.Code, pe.Message, pe.Retryable = "server_error", fmt.Sprintf("server error (HTTP %d)", status), true
	case status >= 400:
		pe.Code, pe.Message = "bad_request", fmt.Sprintf("request rejected (HTTP %d): %v", status, err)
	default:
		classifyByText(pe, err)
	}
	return pe
}

func classifyByText(pe *ProviderError, err error) {
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "rate limit", "rate_limit", "too many requests", "resourceexhausted", "resource_exhausted", "429"):
		pe.Code, pe.Message, pe.Retryable = "rate_limited", "rate limit exceeded", true
	case containsAny(msg, "invalid api key", "incorrect api key", "api_key", "unauthorized", "unauthenticated", "authentication", "permissiondenied", "permission_denied", "401", "403"):
		pe.Code, pe.Message = "invalid_api_key", "API key is invalid or expired"
	case containsAny(msg, "insufficient_quota", "quota", "billing"):
		pe.Code, pe.Message = "quota_exceeded", "quota exceeded"
	case containsAny(msg, "internal server error", "bad gateway", "service unavailable", "gateway timeout", "overloaded", "code = unavailable", "code = internal", "500", "502", "503", "504"):
		pe.Code, pe.Message, pe.Retryable = "server_error", fmt.Sprintf("server error: %v", err), true
	case containsAny(msg, "timeout", "deadline"):
		pe.Code, pe.Message, pe.Retryable = "timeout", "request timed out", true
	case containsAny(msg, "connection", "network", "no such host", "eof"):
		pe.Code, pe.Message, pe.Retryable = "network_error", fmt.Sprintf("network error: %v", err), true
	default:
		pe.Code, pe.Message = "api_error", err.Error()
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
