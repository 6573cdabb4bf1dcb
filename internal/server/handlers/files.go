package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"
)

// saveUploadedFile writes a multipart file into the upload directory under a
// timestamped name and returns that name. The caller removes the file if the
// surrounding operation fails afterwards.
func saveUploadedFile(dir, name string, src multipart.File) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return name, nil
}

// attachmentFilename names a result attachment: result-<nanos><ext>.
func attachmentFilename(original string) string {
	return fmt.Sprintf("result-%d%s", time.Now().UnixNano(), filepath.Ext(original))
}

// pictureFilename names a profile picture: <nanos>-<original>.
func pictureFilename(original string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(original))
}

// isAllowedImage filters profile pictures to jpeg/jpg/png by extension and
// declared content type.
func isAllowedImage(filename, contentType string) bool {
	switch filepath.Ext(filename) {
	case ".jpg", ".jpeg", ".png":
	default:
		return false
	}

	switch contentType {
	case "image/jpeg", "image/jpg", "image/png":
		return true
	}
	return false
}
