package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"

	"sweatervote/internal/config"
	"sweatervote/internal/model"
)

// PhotoStore persists photo blobs and returns their public location.
type PhotoStore interface {
	Put(ctx context.Context, deviceID string, photo model.PhotoUpload) (*model.UploadResult, error)
}

// objectPutter is the slice of the S3 client MediaService uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaService stores contest photos in Cloudflare R2.
type MediaService struct {
	s3Client  objectPutter
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if !cfg.StorageConfigured() {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return newMediaService(s3Client, cfg.R2BucketName, cfg.R2PublicURL), nil
}

func newMediaService(client objectPutter, bucket, publicURL string) *MediaService {
	return &MediaService{
		s3Client:  client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

// Put validates and normalizes the photo, then uploads it under
// sweaters/{device_id}-{unix_millis}.{ext}. Keys are never reused, so a
// retried request never overwrites an earlier blob.
func (s *MediaService) Put(ctx context.Context, deviceID string, photo model.PhotoUpload) (*model.UploadResult, error) {
	data, contentType, err := validateImage(photo)
	if err != nil {
		return nil, err
	}

	ext := photoExt(photo.Filename)
	if contentType != model.ContentTypeWebP {
		normalized, resized, err := normalizePhoto(data)
		if err != nil {
			return nil, err
		}
		if resized {
			data = normalized
			contentType = model.ContentTypeJPEG
			ext = "jpg"
		}
	}

	key := PhotoKey(deviceID, s.now(), ext)
	if err := s.putObject(ctx, key, data, contentType, model.PhotoCacheControl); err != nil {
		return nil, err
	}

	log.Printf("[MediaService] Stored photo: device=%s key=%s bytes=%d", deviceID, key, len(data))
	return &model.UploadResult{URL: fmt.Sprintf("%s/%s", s.publicURL, key), Key: key}, nil
}

// PhotoKey builds the object key for a device's photo.
func PhotoKey(deviceID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s-%d.%s", model.PhotoFolder, deviceID, at.UnixMilli(), ext)
}

// photoExt takes the extension from the client filename, lower-cased.
func photoExt(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return model.PhotoDefaultExt
	}
	return ext
}

// validateImage applies size and type checks.
func validateImage(photo model.PhotoUpload) ([]byte, string, error) {
	if len(photo.Data) == 0 {
		return nil, "", model.ErrPhotoRequired
	}
	if len(photo.Data) > model.MaxPhotoSizeBytes {
		return nil, "", model.ErrFileTooLarge
	}

	contentType := photo.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(photo.Data[:min(len(photo.Data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	return photo.Data, contentType, nil
}

// normalizePhoto decodes the image (applying EXIF orientation) and, when its
// long side exceeds MaxPhotoDimension, returns a downscaled JPEG.
func normalizePhoto(data []byte) ([]byte, bool, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, model.ErrInvalidImageType
	}
	if cfg.Width <= model.MaxPhotoDimension && cfg.Height <= model.MaxPhotoDimension {
		return data, false, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, model.ErrInvalidImageType
	}

	resized := imaging.Fit(img, model.MaxPhotoDimension, model.MaxPhotoDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(model.PhotoJPEGQuality)); err != nil {
		return nil, false, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), true, nil
}

// putObject uploads bytes to R2 with metadata.
func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// unavailablePhotoStore is used when R2 is not configured.
type unavailablePhotoStore struct{}

// NewUnavailablePhotoStore returns a PhotoStore that rejects every upload.
func NewUnavailablePhotoStore() PhotoStore {
	return unavailablePhotoStore{}
}

func (unavailablePhotoStore) Put(ctx context.Context, deviceID string, photo model.PhotoUpload) (*model.UploadResult, error) {
	return nil, model.ErrStorageUnavailable
}
