package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateInviteToken generates the random token embedded in invitation
// accept links.
func GenerateInviteToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}

// DefaultTeamName derives the name for a user's automatically created team
// from the local part of their email address.
func DefaultTeamName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "My Team"
	}
	return local + "'s Team"
}
