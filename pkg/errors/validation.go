package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// gdsNameRegex matches names accepted by GDSII readers for structures and
// libraries: ASCII letters, digits, underscore, question mark and dollar sign.
var gdsNameRegex = regexp.MustCompile(`^[A-Za-z0-9_?$]+$`)

// MaxNameLength is the longest structure or cell name written to GDSII.
const MaxNameLength = 32

// ValidateName validates a structure id, cell name or library name.
//
// The rules follow the GDSII stream format:
//   - No empty names
//   - At most MaxNameLength characters
//   - Only [A-Za-z0-9_?$]
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "name %q too long (max %d characters)", name, MaxNameLength)
	}
	if !gdsNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "name %q contains invalid characters", name)
	}
	return nil
}

// ValidateLabel validates an endpoint label. Labels may not contain the dot
// used to separate structure ids from labels in references, and may not
// contain whitespace or control characters.
func ValidateLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidName, "endpoint label cannot be empty")
	}
	if len(label) > 256 {
		return New(ErrCodeInvalidName, "endpoint label too long (max 256 characters)")
	}
	for _, r := range label {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "endpoint label %q contains whitespace or control characters", label)
		}
	}
	if strings.Contains(label, ".") {
		return New(ErrCodeInvalidName, "endpoint label %q cannot contain '.'", label)
	}
	return nil
}

// SplitReference splits an endpoint reference of the form "id.label".
// The id is validated with ValidateName and the label with ValidateLabel.
func SplitReference(ref string) (id, label string, err error) {
	id, label, ok := strings.Cut(ref, ".")
	if !ok {
		return "", "", New(ErrCodeInvalidInput, "endpoint reference %q must have the form id.label", ref)
	}
	if err := ValidateName(id); err != nil {
		return "", "", err
	}
	if err := ValidateLabel(label); err != nil {
		return "", "", err
	}
	return id, label, nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal when artifact names come from untrusted input.
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
		if unicode.IsControl(r) {
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
