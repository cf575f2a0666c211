package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// ValidateFileName rejects empty names and names carrying a directory part
func ValidateFileName(name string) error {
	clean := SanitizeString(name)
	if clean == "" {
		return fmt.Errorf("file name is empty")
	}
	if clean != filepath.Base(clean) || strings.ContainsAny(clean, `/\`) {
		return fmt.Errorf("invalid file name: %s", name)
	}
	return nil
}
