package upload

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores a binary payload and returns a stable URL. Used only for
// cover-image replacement; guest uploads arrive through a separate pipeline.
type Uploader interface {
	UploadCover(file multipart.File, header *multipart.FileHeader) (string, error)
}

type cloudinaryUploader struct{}

func NewCloudinary() Uploader {
	return cloudinaryUploader{}
}

func instance() (*cloudinary.Cloudinary, error) {
	return cloudinary.NewFromParams(
		os.Getenv("CLOUDINARY_CLOUD_NAME"),
		os.Getenv("CLOUDINARY_API_KEY"),
		os.Getenv("CLOUDINARY_API_SECRET"),
	)
}

func (cloudinaryUploader) UploadCover(file multipart.File, header *multipart.FileHeader) (string, error) {
	cld, err := instance()
	if err != nil {
		return "", fmt.Errorf("cloudinary config error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: "covers",
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}
	return resp.SecureURL, nil
}
