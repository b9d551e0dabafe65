// Package extract converts non-image chat attachments to plain text so the
// workflow stages can treat every request as a message. Image attachments
// are left alone; those go to the vision model instead.
package extract

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Extract reads r and returns a text representation of the content.
// Returns ("", nil) for images and unsupported content types.
func Extract(contentType string, r io.Reader) (string, error) {
	mime := strings.SplitN(contentType, ";", 2)[0]
	mime = strings.TrimSpace(strings.ToLower(mime))

	switch {
	case strings.HasPrefix(mime, "text/"):
		return extractText(r)
	case mime == "application/pdf":
		return extractPDF(r)
	case mime == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return extractDOCX(r)
	case mime == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return extractXLSX(r)
	default:
		return "", nil
	}
}

// FromBase64 decodes a base64 attachment and extracts its text.
func FromBase64(contentType, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode attachment: %w", err)
	}
	return Extract(contentType, strings.NewReader(string(data)))
}

// IsImage reports whether the content type belongs to the vision path.
func IsImage(contentType string) bool {
	mime := strings.SplitN(contentType, ";", 2)[0]
	return strings.HasPrefix(strings.TrimSpace(strings.ToLower(mime)), "image/")
}

func extractText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
