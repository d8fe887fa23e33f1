package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/lectern/core"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable kind and a human-readable message.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const kindInternal = "internal"

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind core.Kind) int {
	switch kind {
	case core.KindInvalidArgument:
		return http.StatusBadRequest
	case core.KindCollectionNotFound:
		return http.StatusNotFound
	case core.KindNoValidRecords:
		return http.StatusUnprocessableEntity
	case core.KindQueryFailed, core.KindTranscriptionFailed, core.KindExtractionSkipped:
		return http.StatusBadGateway
	case core.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case core.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// invalid builds a 400 failure with a caller-facing message.
func invalid(message string) error {
	return core.NewError(core.KindInvalidArgument, "request", errors.New(message))
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.describe(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", status,
			"err", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		s.logger.Error("failed to write error response", "err", writeErr)
	}
}

func (s *Server) describe(err error) (int, ErrorBody) {
	var typed *core.Error
	if errors.As(err, &typed) {
		message := string(typed.Kind)
		if typed.Err != nil {
			message = typed.Err.Error()
		}
		return StatusFor(typed.Kind), ErrorBody{Error: ErrorDetail{Kind: string(typed.Kind), Message: message}}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorBody{Error: ErrorDetail{
			Kind:    string(core.KindUpstreamTimeout),
			Message: "request deadline exceeded",
		}}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := strings.ReplaceAll(strings.ToLower(http.StatusText(he.Code)), " ", "_")
		if he.Code == http.StatusBadRequest {
			kind = string(core.KindInvalidArgument)
		}
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		return he.Code, ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}}
	}

	return http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
		Kind:    kindInternal,
		Message: http.StatusText(http.StatusInternalServerError),
	}}
}
