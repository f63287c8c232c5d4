package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePersonID validates a person identifier taken from host input.
// IDs end up in SVG attributes and URLs, so they are kept conservative:
//   - No empty IDs
//   - No control characters or whitespace
//   - No quotes or angle brackets
//   - Maximum length of 128 characters
func ValidatePersonID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "person ID cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "person ID too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "person ID contains whitespace or control characters")
		}
	}
	if strings.ContainsAny(id, `"'<>&`) {
		return New(ErrCodeInvalidInput, "person ID contains markup characters: %q", id)
	}
	return nil
}

// treeNameRegex matches names of stored trees served over HTTP.
var treeNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateTreeName validates the name of a tree file requested by name.
// It must be a simple basename: no separators, no hidden files.
func ValidateTreeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "tree name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "tree name too long (max 128 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "tree name cannot contain path traversal sequences (..)")
	}
	if !treeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid tree name: %q", name)
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateAvatarURL validates an avatar reference. Besides http(s) URLs it
// accepts inline data: URLs and relative file paths; remote fetches are
// left to the caller's policy.
func ValidateAvatarURL(ref string) error {
	switch {
	case ref == "":
		return New(ErrCodeInvalidInput, "avatar reference cannot be empty")
	case strings.HasPrefix(ref, "data:image/"):
		return nil
	case strings.Contains(ref, "://"):
		return ValidateURL(ref)
	case strings.Contains(ref, ":"):
		return New(ErrCodeInvalidInput, "unsupported avatar scheme: %q", ref)
	}
	return ValidatePath(ref)
}
