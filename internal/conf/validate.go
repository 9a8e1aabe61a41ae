// conf/validate.go

package conf

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and resolves the
// configured timezone.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if strings.TrimSpace(settings.Data.Path) == "" {
		ve.Errors = append(ve.Errors, "data.path must not be empty")
	}
	if strings.TrimSpace(settings.Data.DetectionFile) == "" {
		ve.Errors = append(ve.Errors, "data.detectionfile must not be empty")
	}
	if strings.TrimSpace(settings.Audio.Path) == "" {
		ve.Errors = append(ve.Errors, "audio.path must not be empty")
	}
	if settings.Audio.MaxFileSize < 0 {
		ve.Errors = append(ve.Errors, "audio.maxfilesize must not be negative")
	}
	if settings.Server.RateLimit < 0 {
		ve.Errors = append(ve.Errors, "server.ratelimit must not be negative")
	}
	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn is required when sentry is enabled")
	}

	loc, err := loadTimezone(settings.Main.Timezone)
	if err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("main.timezone: %v", err))
	} else {
		settings.location = loc
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func loadTimezone(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
