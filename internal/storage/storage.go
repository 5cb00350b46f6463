package storage

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("image not found")
	ErrInvalidName = errors.New("invalid image name")
	ErrNotImage    = errors.New("file is not a supported image")
)

// Extensions by detected content type.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var validName = regexp.MustCompile(`^[0-9a-f-]{36}\.(jpg|png|gif|webp)$`)

// ImageStore keeps uploaded recipe images as files under one directory.
type ImageStore struct {
	basePath string
}

// NewImageStore creates a new ImageStore and ensures the base directory exists.
func NewImageStore(basePath string) (*ImageStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &ImageStore{basePath: basePath}, nil
}

// DetectImageType sniffs data and returns its MIME type, or ErrNotImage.
func DetectImageType(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if _, ok := imageTypes[mime]; !ok {
		return "", ErrNotImage
	}
	return mime, nil
}

func (s *ImageStore) path(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.basePath, name), nil
}

// Save writes an image under a new random name and returns the name and
// the detected MIME type.
func (s *ImageStore) Save(data []byte) (name, mime string, err error) {
	mime, err = DetectImageType(data)
	if err != nil {
		return "", "", err
	}
	name = uuid.NewString() + imageTypes[mime]

	// Write to a temp file first so readers never see a partial image.
	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.basePath, name)); err != nil {
		return "", "", fmt.Errorf("failed to store image file: %w", err)
	}
	return name, mime, nil
}

// Open returns the stored image. The caller closes it.
func (s *ImageStore) Open(name string) (*os.File, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", name, err)
	}
	return f, nil
}

// Delete removes an image. Deleting a missing image is not an error.
func (s *ImageStore) Delete(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image %s: %w", name, err)
	}
	return nil
}
