package hub

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a prefixed random identifier, e.g. "wf-1a2b3c4d...".
func GenerateID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Reference returns a human-facing reference code such as "PAY-1A2B3C4D".
// These appear in approval details and final responses.
func Reference(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:8])
}
