// Package report composes detection summaries with embedded charts into
// HTML, markdown or plain text documents.
package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/k3a/html2text"

	"github.com/tphakala/birdnet-mcp/internal/chart"
	"github.com/tphakala/birdnet-mcp/internal/detection"
	"github.com/tphakala/birdnet-mcp/internal/errors"
)

// Format selects the report document type.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatHTML

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/report.html.tmpl"))

	markdownTemplate = texttemplate.Must(texttemplate.New("report.md.tmpl").
				Funcs(texttemplate.FuncMap{"cell": markdownCell}).
				ParseFS(templateFS, "templates/report.md.tmpl"))
)

// ParseFormat validates a report format name. An empty value selects
// DefaultFormat.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return DefaultFormat, nil
	case FormatHTML, FormatMarkdown, FormatText:
		return f, nil
	default:
		return "", errors.New(fmt.Errorf("invalid report format %q, expected html, markdown or text", value)).
			Component("report").
			Category(errors.CategoryValidation).
			Context("value", value).
			Build()
	}
}

// ContentType returns the media type of documents in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

// Summary holds the figures a report presents.
type Summary struct {
	StartDate       string
	EndDate         string
	TotalDetections int
	UniqueSpecies   int
	Confidence      detection.ConfidenceStats
	TopSpecies      []detection.SpeciesCount
	Hourly          detection.HourlyActivity
}

// Summarize aggregates records that already passed the date filter. Hours
// are bucketed in loc.
func Summarize(startDate, endDate string, records []detection.Detection, loc *time.Location) Summary {
	stats := detection.CalculateDetectionStats(records)
	return Summary{
		StartDate:       startDate,
		EndDate:         endDate,
		TotalDetections: stats.TotalDetections,
		UniqueSpecies:   stats.UniqueSpecies,
		Confidence:      detection.CalculateConfidenceStats(records),
		TopSpecies:      stats.TopSpecies,
		Hourly:          detection.HourlyHistogram(records, loc),
	}
}

// AverageConfidence renders the mean confidence as a percentage with one
// decimal, or "0%" when there are no detections.
func (s *Summary) AverageConfidence() string {
	if s.TotalDetections == 0 {
		return "0%"
	}
	return strconv.FormatFloat(s.Confidence.Avg*100, 'f', 1, 64) + "%"
}

type templateData struct {
	StartDate         string
	EndDate           string
	TotalDetections   int
	UniqueSpecies     int
	AverageConfidence string
	TopSpecies        []detection.SpeciesCount
	ActivityChart     htmltemplate.HTML
	SpeciesChart      htmltemplate.HTML
	Styled            bool
	Charts            bool
}

// Compose renders the summary in the requested format.
func Compose(format Format, summary *Summary) (string, error) {
	data := templateData{
		StartDate:         summary.StartDate,
		EndDate:           summary.EndDate,
		TotalDetections:   summary.TotalDetections,
		UniqueSpecies:     summary.UniqueSpecies,
		AverageConfidence: summary.AverageConfidence(),
		TopSpecies:        summary.TopSpecies,
		Styled:            true,
		Charts:            true,
	}
	if format != FormatText {
		// chart markup is generated here and contains only escaped text
		data.ActivityChart = htmltemplate.HTML(chart.ActivityChart(summary.Hourly))   //nolint:gosec // G203: generated SVG
		data.SpeciesChart = htmltemplate.HTML(chart.SpeciesChart(summary.TopSpecies)) //nolint:gosec // G203: generated SVG
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatHTML, "":
		err = htmlTemplate.Execute(&buf, data)
	case FormatMarkdown:
		err = markdownTemplate.Execute(&buf, data)
	case FormatText:
		data.Styled, data.Charts = false, false
		if err = htmlTemplate.Execute(&buf, data); err == nil {
			text := html2text.HTML2TextWithOptions(buf.String(), html2text.WithUnixLineBreaks(), html2text.WithListSupport())
			return plainText(text), nil
		}
	default:
		return "", errors.Newf("unsupported report format %q", format).
			Component("report").
			Category(errors.CategoryValidation).
			Build()
	}
	if err != nil {
		return "", errors.New(err).
			Component("report").
			Category(errors.CategoryGeneric).
			Context("format", string(format)).
			Build()
	}
	return buf.String(), nil
}

// plainText trims every line and collapses runs of blank lines into one.
func plainText(s string) string {
	var b strings.Builder
	pendingBlank := false
	for line := range strings.Lines(s) {
		line = strings.TrimSpace(line)
		if line == "" {
			pendingBlank = b.Len() > 0
			continue
		}
		if pendingBlank {
			b.WriteByte('\n')
			pendingBlank = false
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// markdownCell keeps a value from breaking a table row.
func markdownCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ", "\r", "").Replace(s)
}
