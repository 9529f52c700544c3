package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates a node identifier arriving from an external
// snapshot source (file, HTTP upload, DOT import).
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//
// Engines accept any id that passes; display concerns are the renderer's.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSnapshot, "node id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidSnapshot, "node id too long (max 256 characters)")
	}

	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidSnapshot, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidateSceneName validates a scene name for the store and API.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 256 characters
//   - No control characters or null bytes
func ValidateSceneName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "scene name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "scene name too long (max 256 characters)")
	}

	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "scene name contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
