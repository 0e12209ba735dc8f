// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"maps"
	"slices"
	"strings"
)

// FieldErrors maps a form field to a message explaining what's wrong with it.
// It is the error returned for any input that fails validation.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := slices.Sorted(maps.Keys(f))

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has an error
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Check records err for field when it's not nil
func (f FieldErrors) Check(field string, err error) {
	if err != nil {
		f.Add(field, err.Error())
	}
}

// Err returns nil when nothing was recorded so callers can return it directly
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}

	return f
}
