package dto

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Envelope status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ListResponse is the envelope of a list request
type ListResponse struct {
	Code      int        `json:"code"`
	Status    string     `json:"status"`
	Count     int        `json:"count"`
	UpdatedAt *time.Time `json:"updatedAt"`
	Data      any        `json:"data"`
}

// CountResponse is the envelope of a bulk delete
type CountResponse struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// ErrorResponse is the envelope of every failed request
type ErrorResponse struct {
	Code      int                `json:"code"`
	Status    string             `json:"status"`
	Message   string             `json:"message"`
	Error     string             `json:"error"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewRecordResponse flattens a record into the single-record envelope:
// {code, status, message?, ...record fields}.
func NewRecordResponse(code int, message string, record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	body := make(map[string]any)
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to flatten record: %w", err)
	}
	body["code"] = code
	body["status"] = StatusSuccess
	if message != "" {
		body["message"] = message
	}
	return body, nil
}

// NewListResponse creates a list envelope. A nil data slice is sent as [].
func NewListResponse(count int, updatedAt *time.Time, data any) ListResponse {
	if data == nil {
		data = []any{}
	}
	return ListResponse{
		Code:      http.StatusOK,
		Status:    StatusSuccess,
		Count:     count,
		UpdatedAt: updatedAt,
		Data:      data,
	}
}

// NewCountResponse creates a bulk delete envelope
func NewCountResponse(message string, count int64) CountResponse {
	return CountResponse{
		Code:    http.StatusOK,
		Status:  StatusSuccess,
		Message: message,
		Count:   count,
	}
}

// NewErrorResponse creates an error envelope whose status follows the error code
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Code:    GetHTTPStatus(code),
		Status:  StatusError,
		Message: message,
		Error:   code,
	}
}

// NewErrorResponseWithRequestID creates an error envelope carrying the request ID
func NewErrorResponseWithRequestID(statusCode int, code, message, requestID string) ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Code = statusCode
	resp.RequestID = requestID
	return resp
}

// NewValidationErrorResponse creates a 400 envelope with per-field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) ErrorResponse {
	resp := NewErrorResponseWithRequestID(http.StatusBadRequest, ErrCodeValidation, message, requestID)
	resp.Details = details
	return resp
}
