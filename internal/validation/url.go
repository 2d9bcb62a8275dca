package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL validates URLs before a browser page navigates to them.
// Generated pages are opened from disk, so file URLs are accepted alongside
// http and https.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("URL must have a valid hostname")
		}
	case "file":
		if parsed.Path == "" {
			return fmt.Errorf("file URL must have a path")
		}
	default:
		return fmt.Errorf("invalid URL scheme: %s (only file, http and https allowed)", parsed.Scheme)
	}

	dangerous := []string{"`", "\"", "'", "<", ">", "\n", "\r"}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	return nil
}
