package authkit

import (
	"errors"
	"testing"
)

func TestValidateLoginInput(t *testing.T) {
	cfg := testConfig()
	cfg.Login.RequireTerms = true
	client := newTestClientWithConfig(t, &fakeGateway{}, newTestClock(), cfg)

	cases := []struct {
		name  string
		input LoginInput
		want  error
	}{
		{"bad email", LoginInput{Email: "nope", Password: "longenough", AcceptedTerms: true}, ErrEmailInvalid},
		{"empty email", LoginInput{Password: "longenough", AcceptedTerms: true}, ErrEmailInvalid},
		{"short password", LoginInput{Email: "a@b.co", Password: "short", AcceptedTerms: true}, ErrPasswordTooShort},
		{"terms unchecked", LoginInput{Email: "a@b.co", Password: "longenough"}, ErrTermsNotAccepted},
		{"ok", LoginInput{Email: "a@b.co", Password: "longenough", AcceptedTerms: true}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := client.validateLoginInput(&tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if tc.want != nil && !errors.Is(err, ErrValidation) {
				t.Fatal("validation errors must match the validation class")
			}
		})
	}
}

func TestValidateLoginInputNormalizesEmail(t *testing.T) {
	client := newTestClient(t, &fakeGateway{}, newTestClock())

	input := LoginInput{Email: "  USER@Example.COM ", Password: "longenough"}
	if err := client.validateLoginInput(&input); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if input.Email != "user@example.com" {
		t.Fatalf("email not normalized: %q", input.Email)
	}
}

func TestValidateRegisterInput(t *testing.T) {
	client := newTestClient(t, &fakeGateway{}, newTestClock())

	base := RegisterInput{
		FullName:        "Ada Lovelace",
		Email:           "ada@example.com",
		Password:        "longenough",
		ConfirmPassword: "longenough",
		PhoneNumber:     "5551234",
	}

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{"ok", func(*RegisterInput) {}, nil},
		{"numeric name", func(r *RegisterInput) { r.FullName = "Ada123" }, ErrNameInvalid},
		{"single letter name", func(r *RegisterInput) { r.FullName = "A" }, ErrNameInvalid},
		{"bad email", func(r *RegisterInput) { r.Email = "ada@" }, ErrEmailInvalid},
		{"short password", func(r *RegisterInput) { r.Password, r.ConfirmPassword = "short", "short" }, ErrPasswordTooShort},
		{"mismatch", func(r *RegisterInput) { r.ConfirmPassword = "different-pass" }, ErrPasswordMismatch},
		{"no phone", func(r *RegisterInput) { r.PhoneNumber = "  " }, ErrPhoneRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			if err := client.validateRegisterInput(&input); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidFullNameUnicode(t *testing.T) {
	if !validFullName("José García") {
		t.Error("accented letters must be accepted")
	}
	if !validFullName("李 雷") {
		t.Error("CJK letters must be accepted")
	}
	if validFullName("Ada_Lovelace") {
		t.Error("underscore must be rejected")
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		code     string
		national string
		want     string
	}{
		{"91", "98765 43210", "+919876543210"},
		{"+1", "555-123-4567", "+15551234567"},
		{"44", "+44 7700 900123", "+447700900123"},
	}

	for _, tc := range cases {
		if got := normalizePhone(tc.code, tc.national); got != tc.want {
			t.Errorf("normalizePhone(%q, %q) = %q, want %q", tc.code, tc.national, got, tc.want)
		}
	}
}
