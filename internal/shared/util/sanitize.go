package util

import (
	"errors"
	"strings"
)

var ErrFileName = errors.New("invalid file name")

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// SanitizeFileName flattens path separators out of an uploaded file
// name and rejects traversal sequences outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrFileName
	}
	cleaned := separatorReplacer.Replace(strings.TrimSpace(name))
	if cleaned == "" {
		return "", ErrFileName
	}
	return cleaned, nil
}
