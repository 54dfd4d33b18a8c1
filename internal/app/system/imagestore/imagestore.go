// internal/app/system/imagestore/imagestore.go
//
// Package imagestore hosts product images. The production provider
// uploads to Cloudinary; a local-disk provider serves development
// setups without credentials.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Provider stores one image and returns its public URL.
type Provider interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
}

// Cloudinary uploads images to a Cloudinary folder.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds a provider from a cloudinary:// URL.
func NewCloudinary(cloudinaryURL, folder string) (*Cloudinary, error) {
	if cloudinaryURL == "" {
		return nil, errors.New("imagestore: cloudinary url is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("imagestore: init cloudinary: %w", err)
	}
	if folder == "" {
		folder = "products"
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// Upload stores the image under a random public ID and returns the
// HTTPS delivery URL. IDs are random so sellers cannot collide with or
// overwrite each other's images; the original filename is kept only for
// error reporting.
func (c *Cloudinary) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	overwrite := false
	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:  c.folder + "/" + uuid.NewString(),
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("imagestore: upload %s: %w", filename, err)
	}
	if resp.SecureURL == "" {
		return "", errors.New("imagestore: upload returned no URL")
	}
	return resp.SecureURL, nil
}
