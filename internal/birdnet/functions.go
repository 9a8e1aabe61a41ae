package birdnet

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/tphakala/birdnet-mcp/internal/detection"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/myaudio"
	"github.com/tphakala/birdnet-mcp/internal/report"
)

// Property declares one function parameter in JSON-schema style.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// Parameters is the object schema of a function's arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Function describes an exposed function.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

const dateDescription = "in ISO format (YYYY-MM-DD)"

func floatPtr(v float64) *float64 { return &v }

func periodNames() []string {
	names := make([]string, 0, len(detection.Periods))
	for _, p := range detection.Periods {
		names = append(names, string(p))
	}
	return names
}

// Functions returns the manifest of exposed functions in a fixed order.
func Functions() []Function {
	return []Function{
		{
			Name:        FuncGetBirdDetections,
			Description: "Get bird detections filtered by date range and optionally by species",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"startDate": {Type: "string", Description: "Start date " + dateDescription},
					"endDate":   {Type: "string", Description: "End date " + dateDescription + ", included in full"},
					"species":   {Type: "string", Description: "Optional: Filter by species name (partial match)"},
				},
				Required: []string{"startDate", "endDate"},
			},
		},
		{
			Name:        FuncGetDetectionStats,
			Description: "Get detailed statistics about bird detections",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"period": {Type: "string", Description: "Time period for statistics", Enum: periodNames()},
					"minConfidence": {
						Type:        "number",
						Description: "Optional: Minimum confidence threshold (0-1)",
						Default:     0,
						Minimum:     floatPtr(0),
						Maximum:     floatPtr(1),
					},
				},
				Required: []string{"period"},
			},
		},
		{
			Name:        FuncGetAudioRecording,
			Description: "Get the audio recording for a specific detection",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"filename": {Type: "string", Description: "Audio file name relative to the audio directory"},
					"format": {
						Type:        "string",
						Description: "Output format for the audio data",
						Enum:        []string{string(myaudio.FormatBase64), string(myaudio.FormatBuffer)},
						Default:     string(myaudio.DefaultFormat),
					},
				},
				Required: []string{"filename"},
			},
		},
		{
			Name:        FuncGetDailyActivity,
			Description: "Get bird activity patterns throughout the day",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"date":    {Type: "string", Description: "Date to analyze (YYYY-MM-DD)"},
					"species": {Type: "string", Description: "Optional: Filter by species"},
				},
				Required: []string{"date"},
			},
		},
		{
			Name:        FuncGenerateDetectionReport,
			Description: "Generate a comprehensive report of bird detections with visualizations",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"startDate": {Type: "string", Description: "Start date " + dateDescription},
					"endDate":   {Type: "string", Description: "End date " + dateDescription},
					"format": {
						Type:        "string",
						Description: "Output format for the report",
						Enum:        []string{string(report.FormatHTML), string(report.FormatMarkdown), string(report.FormatText)},
						Default:     string(report.DefaultFormat),
					},
				},
				Required: []string{"startDate", "endDate"},
			},
		},
	}
}

// Invoke decodes params for the named function and calls it. Unknown names
// produce an error matching ErrUnknownFunction with CategoryNotFound.
func (s *Service) Invoke(ctx context.Context, name string, params json.RawMessage) (any, error) {
	switch name {
	case FuncGetBirdDetections:
		return invoke(ctx, name, params, s.GetBirdDetections)
	case FuncGetDetectionStats:
		return invoke(ctx, name, params, s.GetDetectionStats)
	case FuncGetAudioRecording:
		return invoke(ctx, name, params, s.GetAudioRecording)
	case FuncGetDailyActivity:
		return invoke(ctx, name, params, s.GetDailyActivity)
	case FuncGenerateDetectionReport:
		return invoke(ctx, name, params, s.GenerateDetectionReport)
	default:
		return nil, errors.New(&unknownFunctionError{name: name}).
			Component("birdnet").
			Category(errors.CategoryNotFound).
			Context("function", name).
			Build()
	}
}

// invoke keeps a failed call from returning a typed nil result.
func invoke[P, R any](ctx context.Context, name string, params json.RawMessage, fn func(context.Context, P) (*R, error)) (any, error) {
	var p P
	if err := decodeParams(name, params, &p); err != nil {
		return nil, err
	}
	result, err := fn(ctx, p)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// unknownFunctionError matches ErrUnknownFunction.
type unknownFunctionError struct {
	name string
}

func (e *unknownFunctionError) Error() string {
	return "Function " + e.name + " not found"
}

func (e *unknownFunctionError) Is(target error) bool {
	return target == ErrUnknownFunction
}

// decodeParams unmarshals a JSON object into dst. Absent or null params
// leave dst at its zero value.
func decodeParams(function string, params json.RawMessage, dst any) error {
	params = bytes.TrimSpace(params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return nil
	}
	if params[0] != '{' {
		return paramError("parameters", "%s: parameters must be a JSON object", function)
	}

	if err := json.Unmarshal(params, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return paramError(typeErr.Field, "%s: parameter %s must be of type %s, got %s",
				function, typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return paramError("parameters", "%s: invalid parameters: %v", function, err)
	}
	return nil
}
