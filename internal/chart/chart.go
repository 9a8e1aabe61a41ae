// Package chart renders detection aggregates as self-contained SVG bar
// charts for embedding in reports.
package chart

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tphakala/birdnet-mcp/internal/detection"
)

// Canvas dimensions shared by both charts.
const (
	Width  = 800
	Height = 400
)

const (
	activityPadding = 50
	speciesPadding  = 100
	yTicks          = 5
	labelFontSize   = 12
	titleFontSize   = 16
	barFill         = "steelblue"
	barOpacity      = "0.8"
	barGap          = 2

	// MaxSpecies caps the number of bars in the species chart.
	MaxSpecies = 10

	activityTitle  = "Daily Bird Activity"
	speciesTitle   = "Species Distribution"
	emptyChartText = "No detections"
)

// ActivityChart draws hourly counts as 24 vertical bars on a linear scale
// from zero to the busiest hour. An all-zero histogram produces zero-height
// bars.
func ActivityChart(hist detection.HourlyActivity) string {
	const plotW = Width - 2*activityPadding
	const plotH = Height - 2*activityPadding
	barWidth := float64(plotW) / detection.HoursPerDay

	maxCount := hist.Max()
	yScale := 0.0
	if maxCount > 0 {
		yScale = float64(plotH) / float64(maxCount)
	}

	var b strings.Builder
	openSVG(&b)

	for hour, count := range hist {
		x := activityPadding + float64(hour)*barWidth
		barHeight := float64(count) * yScale
		y := Height - activityPadding - barHeight
		writeBar(&b, x, y, barWidth-barGap, barHeight)
	}

	// x axis
	fmt.Fprintf(&b, `<g transform="translate(0,%d)">`, Height-activityPadding)
	fmt.Fprintf(&b, `<line x1="%d" y1="0" x2="%d" y2="0" stroke="black"/>`, activityPadding, Width-activityPadding)
	for hour := range detection.HoursPerDay {
		fmt.Fprintf(&b, `<text x="%s" y="20" text-anchor="middle" font-size="%d">%d:00</text>`,
			num(activityPadding+float64(hour)*barWidth+barWidth/2), labelFontSize, hour)
	}
	b.WriteString("</g>")

	// y axis, ticks from max at the top down to zero
	fmt.Fprintf(&b, `<g transform="translate(%d,0)">`, activityPadding)
	fmt.Fprintf(&b, `<line x1="0" y1="%d" x2="0" y2="%d" stroke="black"/>`, activityPadding, Height-activityPadding)
	for i := range yTicks {
		steps := yTicks - 1
		value := math.Round(float64(maxCount*(steps-i)) / float64(steps))
		y := activityPadding + float64(i*plotH)/float64(steps)
		fmt.Fprintf(&b, `<text x="-10" y="%s" text-anchor="end" dominant-baseline="middle" font-size="%d">%s</text>`,
			num(y), labelFontSize, num(value))
	}
	b.WriteString("</g>")

	writeTitle(&b, activityTitle)
	if maxCount == 0 {
		writeEmptyLabel(&b)
	}
	return closeSVG(&b)
}

// SpeciesChart draws up to MaxSpecies horizontal bars in ranking order,
// each labelled with the species name and count. An empty ranking renders
// the frame with a "No detections" label.
func SpeciesChart(ranking []detection.SpeciesCount) string {
	if len(ranking) > MaxSpecies {
		ranking = ranking[:MaxSpecies]
	}

	var b strings.Builder
	openSVG(&b)

	if len(ranking) == 0 {
		writeTitle(&b, speciesTitle)
		writeEmptyLabel(&b)
		return closeSVG(&b)
	}

	const plotW = Width - 2*speciesPadding
	const plotH = Height - 2*speciesPadding
	barHeight := float64(plotH) / float64(len(ranking))

	maxCount := 0
	for _, sc := range ranking {
		maxCount = max(maxCount, sc.Count)
	}
	xScale := 0.0
	if maxCount > 0 {
		xScale = float64(plotW) / float64(maxCount)
	}

	for i, sc := range ranking {
		y := speciesPadding + float64(i)*barHeight
		barWidth := float64(sc.Count) * xScale
		mid := num(y + barHeight/2)

		writeBar(&b, speciesPadding, y, barWidth, barHeight-barGap)

		fmt.Fprintf(&b, `<text x="%d" y="%s" text-anchor="end" dominant-baseline="middle" font-size="%d">`,
			speciesPadding-5, mid, labelFontSize)
		writeEscaped(&b, sc.Species)
		b.WriteString("</text>")

		fmt.Fprintf(&b, `<text x="%s" y="%s" dominant-baseline="middle" font-size="%d">%d</text>`,
			num(speciesPadding+barWidth+5), mid, labelFontSize, sc.Count)
	}

	writeTitle(&b, speciesTitle)
	return closeSVG(&b)
}

func openSVG(b *strings.Builder) {
	fmt.Fprintf(b, `<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		Width, Height, Width, Height)
}

func closeSVG(b *strings.Builder) string {
	b.WriteString("</svg>")
	return b.String()
}

func writeBar(b *strings.Builder, x, y, w, h float64) {
	fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" opacity="%s"/>`,
		num(x), num(y), num(max(w, 0)), num(max(h, 0)), barFill, barOpacity)
}

func writeTitle(b *strings.Builder, title string) {
	fmt.Fprintf(b, `<text x="%d" y="30" text-anchor="middle" font-size="%d">%s</text>`,
		Width/2, titleFontSize, title)
}

func writeEmptyLabel(b *strings.Builder) {
	fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" font-size="%d" fill="gray">%s</text>`,
		Width/2, Height/2, labelFontSize, emptyChartText)
}

func writeEscaped(b *strings.Builder, s string) {
	// strings.Builder writes never fail
	_ = xml.EscapeText(b, []byte(s))
}

// num formats a coordinate with the fewest digits that round-trip.
func num(f float64) string {
	if f == 0 {
		return "0" // avoids "-0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
