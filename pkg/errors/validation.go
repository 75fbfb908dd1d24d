package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// typeNameRegex matches node type names. Type names become document keys
// (lowercased and pluralized), so they are restricted to identifiers.
var typeNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateTypeName validates a node type name declared in configuration.
func ValidateTypeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "type name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidConfig, "type name too long (max 64 characters)")
	}
	if !typeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidConfig, "invalid type name: %q", name)
	}
	return nil
}

// ValidateFieldName validates a property name inside a schema.
//
// Field names share a namespace with the reserved document keys of a
// serialized node, and may not contain path syntax characters.
func ValidateFieldName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSchema, "field name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSchema, "field name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, ".[]") {
		return New(ErrCodeInvalidSchema, "field name cannot contain '.', '[' or ']': %q", name)
	}
	return nil
}

// ValidateDocumentPath validates a document file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Must not name a directory (trailing separator)
func ValidateDocumentPath(path string) error {
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

	if strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "path must name a file, not a directory")
	}

	return nil
}
