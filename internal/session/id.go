package session

import (
	"fmt"

	"session-guard/internal/utils"
)

// idBytes gives session IDs 256 bits of entropy.
const idBytes = 32

// GenerateID returns a URL-safe random session ID.
func GenerateID() (string, error) {
	id, err := utils.RandomString(idBytes)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return id, nil
}
