package myaudio

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/tphakala/birdnet-mcp/internal/errors"
)

// Format selects how clip bytes are returned to the caller.
type Format string

const (
	FormatBase64 Format = "base64"
	FormatBuffer Format = "buffer"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatBase64

// ParseFormat validates an output format; empty selects DefaultFormat.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return DefaultFormat, nil
	case FormatBase64:
		return FormatBase64, nil
	case FormatBuffer:
		return FormatBuffer, nil
	}
	return "", errors.New(fmt.Errorf("invalid audio format %q, expected base64 or buffer", value)).
		Component("myaudio").
		Category(errors.CategoryValidation).
		Build()
}

// audioContentTypes pins common clip types so responses do not depend on the
// host mime database.
var audioContentTypes = map[string]string{
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
}

// ContentType returns the MIME type for a clip file name.
func ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := audioContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// EncodeBase64 returns the standard base64 encoding of data.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
