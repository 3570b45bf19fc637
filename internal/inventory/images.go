package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stockroom/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type imageStore struct {
	dir      string
	maxBytes int64
}

// CheckImage sniffs data and rejects anything that is empty, too large, or
// not an image. It returns the detected MIME type.
func CheckImage(data []byte, maxBytes int64) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "image is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, apperr.Newf(apperr.CodeValidation, "image exceeds %d MB", maxBytes>>20)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, apperr.Newf(apperr.CodeValidation, "unsupported file type %s", mtype.String())
	}
	return mtype, nil
}

// SaveImage writes an uploaded product image under the image directory with
// a random file name and returns its path.
func (s *Service) SaveImage(data []byte) (path string, err error) {
	defer func() { s.metrics.Operation("save_image", err) }()

	mtype, err := CheckImage(data, s.images.maxBytes)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.images.dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.CodePersistence, err, "failed to create image directory")
	}

	path = filepath.Join(s.images.dir, uuid.NewString()+mtype.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperr.Wrap(apperr.CodePersistence, err, fmt.Sprintf("failed to write image %s", filepath.Base(path)))
	}

	return path, nil
}
