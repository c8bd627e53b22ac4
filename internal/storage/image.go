package storage

import (
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrNotImage = errors.New("only image files are allowed")

// DetectImage sniffs the leading bytes of r and rewinds it. The declared
// content type of an upload is never trusted.
func DetectImage(r io.ReadSeeker) (contentType, ext string, err error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", "", err
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", "", ErrNotImage
	}
	return mtype.String(), mtype.Extension(), nil
}
