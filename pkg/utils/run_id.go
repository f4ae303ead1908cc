package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateRunID creates a human-readable simulation run ID.
// Format: run-{preset}-{8charHexUUID}, or run-{8charHexUUID} without a preset.
//
// Example:
//   - Input: preset="perishable"
//   - Output: "run-perishable-a3f8e2b1"
func GenerateRunID(preset string) string {
	preset = strings.ToLower(strings.TrimSpace(preset))
	if preset == "" {
		return "run-" + generateShortUUID()
	}
	return "run-" + strings.ReplaceAll(preset, " ", "-") + "-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID.
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
