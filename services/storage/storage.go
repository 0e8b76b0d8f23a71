package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader is the part of the Cloudinary upload API the archive needs.
type Uploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryArchiver keeps a copy of every analysed business photo.
type CloudinaryArchiver struct {
	upload Uploader
	folder string
}

// NewCloudinaryArchiver builds an archiver from Cloudinary credentials.
func NewCloudinaryArchiver(cloudName, apiKey, apiSecret, folder string) (*CloudinaryArchiver, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to initialize Cloudinary: %w", err)
	}
	return NewArchiver(&cld.Upload, folder), nil
}

func NewArchiver(up Uploader, folder string) *CloudinaryArchiver {
	return &CloudinaryArchiver{upload: up, folder: folder}
}

// ArchivePhoto uploads data under name and returns its secure URL.
func (a *CloudinaryArchiver) ArchivePhoto(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("storage: empty photo")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("storage: refusing to archive %q", mimeType)
	}
	result, err := a.upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:   a.folder,
		PublicID: name,
	})
	if err != nil {
		return "", fmt.Errorf("storage: failed to upload photo: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("storage: cloudinary rejected upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", errors.New("storage: no secure URL returned")
	}
	return result.SecureURL, nil
}
