package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploads stores user and event images under the data directory.
type Uploads struct {
	dir string
}

// NewUploads creates the image directories under dir.
func NewUploads(dir string) (*Uploads, error) {
	for _, sub := range []string{"images/events", "images/users"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create image dir: %w", err)
		}
	}
	return &Uploads{dir: dir}, nil
}

// Dir returns the root directory images are stored under.
func (u *Uploads) Dir() string { return u.dir }

// SaveEventImage stores the uploaded file from the named form field for an
// event. A missing file is not an error; an image with a disallowed
// extension is.
func (u *Uploads) SaveEventImage(r *http.Request, field string) error {
	return u.saveImage(r, field, "images/events")
}

// SaveUserImage stores the uploaded file from the named form field for a
// user profile.
func (u *Uploads) SaveUserImage(r *http.Request, field string) error {
	return u.saveImage(r, field, "images/users")
}

func (u *Uploads) saveImage(r *http.Request, field, sub string) error {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil
		}
		return err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExt(ext) {
		return fmt.Errorf("image type %q not allowed", ext)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(u.dir, sub, name))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}

func allowedImageExt(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
