package utils

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("email address is empty")
	ErrEmailInvalid = errors.New("email address is not valid")
)

// ValidateEmail accepts a bare address with a dotted domain. Display names
// ("Ops <ops@example.com>") are rejected, since they are configured separately.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailEmpty
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailInvalid
	}

	// RFC 5322 allows a dotless domain, a mail relay does not
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if at < 1 || !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return ErrEmailInvalid
	}

	return nil
}
