package validators

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxRubricNameLength = 20

var (
	ErrRubricNameEmpty   = errors.New("name is required")
	ErrRubricNameTooLong = fmt.Errorf("name must be at most %d characters", MaxRubricNameLength)
)

func RubricNameValidator(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ErrRubricNameEmpty
	}

	if utf8.RuneCountInString(name) > MaxRubricNameLength {
		return ErrRubricNameTooLong
	}

	return nil
}
