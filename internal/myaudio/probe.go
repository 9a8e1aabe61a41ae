package myaudio

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/tphakala/flac"
)

// Info describes the audio stream of a clip.
type Info struct {
	Codec           string  `json:"codec"`
	SampleRate      int     `json:"sampleRate"`
	Channels        int     `json:"channels"`
	BitDepth        int     `json:"bitDepth"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Probe reads stream information from WAV or FLAC data. It returns nil
// for other formats or headers that cannot be read.
func Probe(filename string, data []byte) *Info {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return readWAVInfo(data)
	case ".flac":
		return readFLACInfo(data)
	default:
		return nil
	}
}

func readWAVInfo(data []byte) *Info {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil
	}

	info := &Info{
		Codec:      "wav",
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}
	if d, err := decoder.Duration(); err == nil {
		info.DurationSeconds = roundSeconds(d.Seconds())
	}
	return info
}

func readFLACInfo(data []byte) *Info {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	info := &Info{
		Codec:      "flac",
		SampleRate: decoder.SampleRate,
		Channels:   decoder.NChannels,
		BitDepth:   decoder.BitsPerSample,
	}
	if decoder.SampleRate > 0 {
		info.DurationSeconds = roundSeconds(float64(decoder.TotalSamples) / float64(decoder.SampleRate))
	}
	return info
}

// roundSeconds keeps millisecond precision.
func roundSeconds(s float64) float64 {
	return math.Round(s*1000) / 1000
}
