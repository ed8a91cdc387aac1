package util

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFileName collapses unsafe characters and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = unsafeChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// TimestampedName prefixes a sanitized file name with a unix timestamp so
// repeated uploads of the same document never collide in object storage.
func TimestampedName(name string) (string, error) {
	safe, err := SanitizeFileName(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d_%s", time.Now().Unix(), safe), nil
}

// SwapExt replaces the extension of a storage key; keys without an extension
// get the new one appended.
func SwapExt(key, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if idx := strings.LastIndex(key, "."); idx > 0 {
		return key[:idx] + ext
	}
	return key + ext
}
