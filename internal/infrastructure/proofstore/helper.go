package proofstore

import (
	"regexp"
	"strings"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return unsafeKeyChars.ReplaceAllString(value, "-")
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
