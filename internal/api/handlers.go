package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdnet-mcp/internal/birdnet"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/myaudio"
)

// InvokeRequest is the body of POST /invoke.
type InvokeRequest struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters"`
}

// FunctionsResponse is the body of GET /functions.
type FunctionsResponse struct {
	Functions []birdnet.Function `json:"functions"`
}

func (s *Server) listFunctions(c echo.Context) error {
	return c.JSON(http.StatusOK, FunctionsResponse{Functions: birdnet.Functions()})
}

func (s *Server) invoke(c echo.Context) error {
	var req InvokeRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return s.HandleError(c, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "decode_invoke_request").
			Build())
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return s.HandleError(c, errors.ValidationError("function name is required"))
	}

	result, err := s.invoker.Invoke(c.Request().Context(), name, req.Parameters)
	if err != nil {
		return s.HandleError(c, err)
	}

	// buffer format streams the clip itself
	if audio, ok := result.(*birdnet.AudioResult); ok && audio.Format == myaudio.FormatBuffer {
		c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+contentDispositionName(audio.Filename)+`"`)
		return c.Blob(http.StatusOK, audio.ContentType, audio.Data)
	}

	return c.JSON(http.StatusOK, result)
}

// contentDispositionName keeps the base name and drops characters that
// would break the quoted header value.
func contentDispositionName(filename string) string {
	if i := strings.LastIndexByte(filename, '/'); i >= 0 {
		filename = filename[i+1:]
	}
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, filename)
}
