package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/dormfix/dormfix-api/utils"
)

const (
	// maxImageEdge caps the longest edge of a stored image
	maxImageEdge = 1200
	// jpegQuality is the re-encode quality for stored images
	jpegQuality = 80
)

// ImageService handles image upload including validation and downscaling
type ImageService interface {
	// UploadImage validates, transforms, and stores an image file,
	// returning its public retrieval URL
	UploadImage(fileHeader *multipart.FileHeader) (string, error)
}

// S3ImageService implements ImageService using S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

var imageServiceInstance ImageService

// InitImageService initializes the image service with an S3 backend
func InitImageService(s3Service S3Interface) ImageService {
	imageServiceInstance = &S3ImageService{
		s3Service: s3Service,
	}
	return imageServiceInstance
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// UploadImage validates and uploads an image file, downscaled to the storage bound
func (s *S3ImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	data, contentType := transformImage(content, fileHeader.Header.Get("Content-Type"))

	ext := ".jpg"
	if contentType != "image/jpeg" {
		ext = ""
	}

	url, err := s.s3Service.UploadObject(NewObjectKey(ext), data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return url, nil
}

// transformImage downscales an image so its longest edge is at most
// maxImageEdge and re-encodes it as JPEG. Bytes that cannot be decoded
// are stored unchanged with their original content type.
func transformImage(content []byte, originalType string) ([]byte, string) {
	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return content, originalType
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > maxImageEdge || height > maxImageEdge {
		scale := float64(maxImageEdge) / float64(width)
		if height > width {
			scale = float64(maxImageEdge) / float64(height)
		}
		dst := image.NewRGBA(image.Rect(0, 0,
			int(float64(width)*scale), int(float64(height)*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return content, originalType
	}

	return buf.Bytes(), "image/jpeg"
}
