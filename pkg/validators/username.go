package validators

import (
	"errors"
	"regexp"
)

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameTooLong = errors.New("username can't be longer than 150 characters")
	ErrUsernameInvalid = errors.New("username may only contain letters, digits and @/./+/-/_")
)

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if len([]rune(u)) > 150 {
		return ErrUsernameTooLong
	}

	if !usernameRe.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}
