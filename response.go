package main

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error taxonomy codes. Validation and not-found responses are
// deterministic; throttled responses always carry a retry hint;
// internal responses hide upstream detail.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeThrottled  = "THROTTLED"
	CodeInternal   = "INTERNAL"
)

// ErrorBody is the standardized error payload.
type ErrorBody struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// APIResponse handles consistent header setting and JSON responses.
// It centralizes Content-Type, X-Cache-Status and Retry-After handling
// so individual handlers only shape payloads.
type APIResponse struct {
	w           http.ResponseWriter
	r           *http.Request
	cacheStatus string
	retryAfter  int
}

// Respond creates a response helper for the request
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetCacheStatus sets the X-Cache-Status header value
func (a *APIResponse) SetCacheStatus(status string) *APIResponse {
	a.cacheStatus = status
	return a
}

// SetRetryAfter sets the Retry-After header value in seconds
func (a *APIResponse) SetRetryAfter(seconds int) *APIResponse {
	a.retryAfter = seconds
	return a
}

// writeHeaders sets all standard headers
func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")

	if a.cacheStatus != "" {
		a.w.Header().Set("X-Cache-Status", a.cacheStatus)
	}
	if a.retryAfter > 0 {
		a.w.Header().Set("Retry-After", fmt.Sprintf("%d", a.retryAfter))
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers, sets status code, and encodes error response
func (a *APIResponse) Error(statusCode int, data interface{}) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}

// BadRequest writes a 400 with the validation taxonomy code
func (a *APIResponse) BadRequest(message string) error {
	return a.Error(http.StatusBadRequest, ErrorBody{
		Error: message,
		Code:  CodeValidation,
	})
}

// NotFound writes a 404 with the not-found taxonomy code
func (a *APIResponse) NotFound(message string) error {
	return a.Error(http.StatusNotFound, ErrorBody{
		Error: message,
		Code:  CodeNotFound,
	})
}

// Throttled writes a 429 with the retry hint in both the Retry-After
// header and the payload
func (a *APIResponse) Throttled(message string, retryAfter int) error {
	a.SetRetryAfter(retryAfter)
	return a.Error(http.StatusTooManyRequests, ErrorBody{
		Error:      message,
		Code:       CodeThrottled,
		RetryAfter: retryAfter,
	})
}

// Internal writes a 500 with a generic message so upstream error detail
// never leaks to callers
func (a *APIResponse) Internal() error {
	return a.Error(http.StatusInternalServerError, ErrorBody{
		Error: "Internal server error",
		Code:  CodeInternal,
	})
}
