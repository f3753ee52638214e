package user

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lower-cases; it returns "" when the address does not parse.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ""
	}
	return email
}
