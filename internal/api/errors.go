package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdnet-mcp/internal/birdnet"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/logger"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString(),
	}
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, birdnet.ErrUnknownFunction), errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as an ErrorResponse and logs it with its correlation id.
func (s *Server) HandleError(c echo.Context, err error) error {
	code := statusFor(err)

	message := err.Error()
	if code == http.StatusInternalServerError && !s.config.Debug {
		message = "Internal server error"
	}
	resp := NewErrorResponse(err, message, code)

	log := s.log.WithContext(c.Request().Context())
	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.Int("code", code),
		logger.String("path", c.Path()),
		logger.Error(err),
	}
	if code == http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API request rejected", fields...)
	}

	return c.JSON(code, resp)
}

// errorHandler renders errors that escape handlers, including echo's own
// routing and middleware errors, in the ErrorResponse shape.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		if werr := c.JSON(he.Code, NewErrorResponse(he.Internal, message, he.Code)); werr != nil {
			s.log.Warn("Failed to write error response", logger.Error(werr))
		}
		return
	}

	if werr := s.HandleError(c, err); werr != nil {
		s.log.Warn("Failed to write error response", logger.Error(werr))
	}
}
