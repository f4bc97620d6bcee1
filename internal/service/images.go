package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"github.com/platefeed/platefeed/internal/domain"
)

var extByMime = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageService decodes base64 data-URI payloads and stores them under the
// media directory. Filenames derive from the content hash, so storing the
// same image twice is a no-op.
type ImageService struct {
	mediaDir string
}

func NewImageService(mediaDir string) *ImageService {
	return &ImageService{mediaDir: mediaDir}
}

// Store persists an image payload of the form
// "data:image/png;base64,...." and returns the path relative to the
// media directory.
func (s *ImageService) Store(ctx context.Context, payload string) (string, error) {
	mime, data, err := decodeDataURI(payload)
	if err != nil {
		return "", err
	}

	ext, ok := extByMime[mime]
	if !ok {
		return "", domain.ValidationError{Message: fmt.Sprintf("unsupported image type %q", mime)}
	}

	name := fmt.Sprintf("%x.%s", xxh3.Hash(data), ext)
	dir := filepath.Join(s.mediaDir, "recipes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create media directory")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "write image file")
	}
	return filepath.ToSlash(filepath.Join("recipes", name)), nil
}

func decodeDataURI(payload string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(payload, "data:")
	if !ok {
		return "", nil, domain.ValidationError{Message: "image must be a base64 data URI"}
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, domain.ValidationError{Message: "image must be a base64 data URI"}
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, domain.ValidationError{Message: "image must be base64 encoded"}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, domain.ValidationError{Message: "image payload is not valid base64"}
	}
	if len(data) == 0 {
		return "", nil, domain.ValidationError{Message: "image payload is empty"}
	}
	return mime, data, nil
}
