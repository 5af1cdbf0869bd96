package utils

import (
	"fmt"
	"mime/multipart"
	"strings"
)

const (
	// MaxFileSize is 5MB in bytes
	MaxFileSize = 5 * 1024 * 1024
	// MaxImagesPerUpload caps how many images a single request may carry
	MaxImagesPerUpload = 5
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile validates a single uploaded file's type and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check MIME type from the part header
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only image files are allowed",
		}
	}

	return nil
}

// ValidateImageFiles validates an uploaded image set: count cap plus
// per-file type and size checks. Validation runs before any upload so a
// rejected set never reaches storage.
func ValidateImageFiles(fileHeaders []*multipart.FileHeader) error {
	if len(fileHeaders) > MaxImagesPerUpload {
		return &FileUploadError{
			Code:    "TOO_MANY_FILES",
			Message: fmt.Sprintf("At most %d images are allowed per upload", MaxImagesPerUpload),
		}
	}

	for _, fh := range fileHeaders {
		if err := ValidateImageFile(fh); err != nil {
			return err
		}
	}

	return nil
}
