package errors

import (
	"net"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValidateSceneName validates a scene name for safety and correctness.
// Scene names end up in file names and store keys, so the rules are
// intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - No null bytes
//   - Maximum length of 128 characters
func ValidateSceneName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidScene, "scene name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidScene, "scene name too long (max 128 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScene, "scene name contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidScene, "scene name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// identifierRegex matches bare identifiers: a letter, digit, or underscore
// followed by letters, digits, dots, underscores, or hyphens.
var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidateIdentifier validates an identifier as it would be written bare
// (unquoted) in flow source.
func ValidateIdentifier(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "identifier cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "identifier too long (max 128 characters)")
	}

	if !identifierRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid identifier: %q", name)
	}

	return nil
}

// ValidateNodeID validates a node ID from a parsed or stored scene. Quoted
// flow names may contain spaces, so the rules are looser than for bare
// identifiers: printable text of bounded length.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "node id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains control characters")
		}
	}

	return nil
}

// hexColorRegex matches 3- and 6-digit hex color literals.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a hex color literal such as #4a9eff or #fff.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidInput, "color cannot be empty")
	}

	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "invalid hex color: %q", color)
	}

	return nil
}

// renderFormats lists the output formats the render stage understands.
var renderFormats = []string{"svg", "dot", "png"}

// ValidateRenderFormat validates a render output format.
func ValidateRenderFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}

	for _, f := range renderFormats {
		if format == f {
			return nil
		}
	}

	return New(ErrCodeInvalidFormat, "unsupported format %q (supported: %s)",
		format, strings.Join(renderFormats, ", "))
}

// ValidateListenAddr validates a TCP listen address of the form host:port.
// The host may be empty (":8080" listens on all interfaces).
func ValidateListenAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "listen address cannot be empty")
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid listen address %q", addr)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return New(ErrCodeInvalidConfig, "invalid port %q in listen address", port)
	}

	return nil
}
