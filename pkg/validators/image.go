package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
	ErrTooManyFiles        = errors.New("too many files")
)

const maxFileNameSize = 255

var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageValidator checks an uploaded image and returns it opened and rewound
// together with the sniffed content type. The caller must close the file.
func ImageValidator(fh *multipart.FileHeader, maxSize int64) (multipart.File, string, error) {
	if fh == nil {
		return nil, "", ErrNoFile
	}

	// Check headers first which is easy to spoof, but faster for legit clients
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, "", ErrFileTypeUnsupported
	}

	if len(fh.Filename) > maxFileNameSize {
		return nil, "", ErrFileNameTooLong
	}

	if maxSize > 0 && fh.Size > maxSize {
		return nil, "", ErrFileTooLarge
	}

	// And now do the checks on the actual file to avoid
	// malicious clients
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, "", err
	}

	if !slices.ContainsFunc(AllowedImageTypes, mime.Is) {
		f.Close()
		return nil, "", ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", err
	}

	return f, mime.String(), nil
}
