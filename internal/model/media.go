package model

import "errors"

const (
	MaxPhotoSizeBytes = 10 * 1024 * 1024 // 10MB per upload
	MaxPhotoDimension = 2048             // long side after normalization
	PhotoFolder       = "sweaters"
	PhotoDefaultExt   = "jpg"
	PhotoCacheControl = "public, max-age=31536000" // 1 year, keys are never reused
	PhotoJPEGQuality  = 85
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// PhotoUpload is a photo as received from the client, before it is stored.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult represents the stored object location
// URL is the public-facing URL (using R2 public endpoint)
// Key is the object key inside the bucket
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
