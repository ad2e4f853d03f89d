package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// IsSupportedImage reports whether contentType can be stored as a meal photo.
func IsSupportedImage(contentType string) bool {
	_, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// MealPhotoKey builds a unique object key for a meal entry photo:
// meal-photos/<userID>/<entryID>/<uuid><ext>.
func MealPhotoKey(userIDHex, entryIDHex, contentType string) string {
	ext := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	return path.Join("meal-photos", userIDHex, entryIDHex, fmt.Sprintf("%s%s", uuid.NewString(), ext))
}
