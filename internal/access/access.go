// Package access generates event access codes and composes the guest-facing
// link for them. Link composition is pure string work, not network I/O.
package access

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Lowercase alphanumerics keep the code typeable from a printed card.
const (
	codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	codeLength   = 8
)

// NewCode returns a fresh guest access code.
func NewCode() (string, error) {
	code, err := gonanoid.Generate(codeAlphabet, codeLength)
	if err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	return code, nil
}

// GuestLink composes the canonical guest-facing URL for an access code.
func GuestLink(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/guest/" + code
}
