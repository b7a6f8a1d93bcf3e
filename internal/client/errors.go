package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-2xx response. Fields holds per-field validation messages when the
// server sent them.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return fmt.Sprintf("api: %d %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		if text := strings.TrimSpace(string(body)); text != "" {
			apiErr.Message = text
		}
		return apiErr
	}

	var message string
	if json.Unmarshal(envelope.Error, &message) == nil {
		apiErr.Message = message
		return apiErr
	}

	var fields map[string]string
	if json.Unmarshal(envelope.Error, &fields) == nil {
		apiErr.Message = "validation failed"
		apiErr.Fields = fields
	}

	return apiErr
}

type ErrorType string

const (
	ErrorNetwork    ErrorType = "network"
	ErrorAuth       ErrorType = "auth"
	ErrorPermission ErrorType = "permission"
	ErrorNotFound   ErrorType = "not_found"
	ErrorValidation ErrorType = "validation"
	ErrorConflict   ErrorType = "conflict"
	ErrorServer     ErrorType = "server"
	ErrorUnknown    ErrorType = "unknown"
)

// DetermineErrorType classifies err by HTTP status, or as a network failure when
// the request never got a response.
func DetermineErrorType(err error) ErrorType {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return ErrorAuth
		case apiErr.Status == http.StatusForbidden:
			return ErrorPermission
		case apiErr.Status == http.StatusNotFound:
			return ErrorNotFound
		case apiErr.Status == http.StatusBadRequest, apiErr.Status == http.StatusUnprocessableEntity:
			return ErrorValidation
		case apiErr.Status == http.StatusConflict:
			return ErrorConflict
		case apiErr.Status >= 500:
			return ErrorServer
		default:
			return ErrorUnknown
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrorNetwork
	}

	return ErrorUnknown
}

// SongErrorMessage turns a failed song call into a message fit for an end user.
func SongErrorMessage(err error) string {
	switch DetermineErrorType(err) {
	case ErrorValidation:
		return "Invalid song data. Please check the fields and try again."
	case ErrorAuth:
		return "Your session has expired. Please sign in again."
	case ErrorPermission:
		return "You don't have permission to manage songs."
	case ErrorNotFound:
		return "Song not found."
	case ErrorConflict:
		return "This song was changed by someone else or already exists. Refresh and try again."
	case ErrorServer:
		return "Server error while loading songs. Please try again later."
	case ErrorNetwork:
		return "Network error. Please check your connection and try again."
	default:
		return "An unexpected error occurred while working with songs."
	}
}

// LessonErrorMessage turns a failed lesson call into a message fit for an end user.
func LessonErrorMessage(err error) string {
	switch DetermineErrorType(err) {
	case ErrorValidation:
		return "Invalid lesson data. Please check the fields and try again."
	case ErrorAuth:
		return "Your session has expired. Please sign in again."
	case ErrorPermission:
		return "You don't have permission to access this lesson."
	case ErrorNotFound:
		return "Lesson not found."
	case ErrorConflict:
		return "This lesson was changed by someone else. Refresh and try again."
	case ErrorServer:
		return "Server error while loading lessons. Please try again later."
	case ErrorNetwork:
		return "Network error. Please check your connection and try again."
	default:
		return "An unexpected error occurred while working with lessons."
	}
}
