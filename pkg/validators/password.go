package validators

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordNumeric  = errors.New("password can't be entirely numeric")
	ErrPasswordSimilar  = errors.New("password is too similar to the username")
	ErrPasswordMismatch = errors.New("passwords don't match")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	if strings.IndexFunc(p, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		return ErrPasswordNumeric
	}

	return nil
}

// PasswordPairValidator checks a two-step password entry. username may be
// empty when it isn't known.
func PasswordPairValidator(p1, p2, username string) FieldErrors {
	errs := FieldErrors{}

	if err := PasswordValidator(p1); err != nil {
		errs.Add("password1", err.Error())
	} else if username != "" && strings.Contains(strings.ToLower(p1), strings.ToLower(username)) {
		errs.Add("password1", ErrPasswordSimilar.Error())
	}

	if p2 == "" {
		errs.Add("password2", ErrPasswordEmpty.Error())
	} else if p1 != "" && p1 != p2 {
		errs.Add("password2", ErrPasswordMismatch.Error())
	}

	return errs
}
