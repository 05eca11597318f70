package errors

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// Formats lists the artifact formats the pipeline can produce.
var Formats = []string{"text", "json", "dot", "svg", "png"}

// planeNameRegex matches names usable in scenario files: an identifier
// that may also contain dots and dashes.
var planeNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidatePlaneName validates a plane name used in a scenario.
//
// Names must start with a letter or underscore and contain only letters,
// digits, '_', '.' and '-', up to 64 characters.
func ValidatePlaneName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "plane name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidName, "plane name too long (max 64 characters)")
	}
	if !planeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid plane name: %q", name)
	}
	return nil
}

// ValidatePath validates a local file path given on the command line or
// in a config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateOutputName validates a base name for generated artifacts. It
// must be a plain file name without directory components.
func ValidateOutputName(name string) error {
	if err := ValidatePath(name); err != nil {
		return err
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "output name cannot contain path separators")
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "invalid output name: %q", name)
	}
	return nil
}

// ValidateFormat validates an artifact format name.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return New(ErrCodeInvalidFormat, "unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateCode validates an error code named by a scenario expectation.
func ValidateCode(code string) error {
	if !Known(Code(code)) {
		return New(ErrCodeInvalidScenario, "unknown error code %q", code)
	}
	return nil
}
