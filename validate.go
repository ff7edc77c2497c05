package authkit

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validFullName accepts letters and spaces only, minimum two characters of
// which at least two are letters.
func validFullName(name string) bool {
	letters := 0
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ':
		default:
			return false
		}
	}
	return letters >= 2
}

func (c *Client) validateLoginInput(input *LoginInput) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if !validEmail(input.Email) {
		return ErrEmailInvalid
	}
	if len(input.Password) < c.config.Login.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if c.config.Login.RequireTerms && !input.AcceptedTerms {
		return ErrTermsNotAccepted
	}
	return nil
}

func (c *Client) validateRegisterInput(input *RegisterInput) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	if !validFullName(input.FullName) {
		return ErrNameInvalid
	}
	if !validEmail(input.Email) {
		return ErrEmailInvalid
	}
	if len(input.Password) < c.config.Login.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if input.Password != input.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		return ErrPhoneRequired
	}
	if c.config.Login.RequireTerms && !input.AcceptedTerms {
		return ErrTermsNotAccepted
	}
	return nil
}

// normalizePhone returns the international form of a national number by
// prefixing the country calling code, unless the user already typed a
// leading "+".
func normalizePhone(callingCode, national string) string {
	national = strings.TrimSpace(national)
	if strings.HasPrefix(national, "+") {
		return "+" + digitsOnly(national)
	}
	return "+" + digitsOnly(callingCode) + digitsOnly(national)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
