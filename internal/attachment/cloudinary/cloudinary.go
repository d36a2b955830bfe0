// Package cloudinary stores inquiry attachments in a Cloudinary folder.
package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/egannguyen/jewellery-storefront/internal/attachment"
)

const folder = "bespoke-inquiries"

type store struct {
	cld *cloudinary.Cloudinary
}

// NewStore connects using a cloudinary:// URL.
func NewStore(cloudURL string) (attachment.Store, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &store{cld: cld}, nil
}

func (s *store) Upload(ctx context.Context, filename string, r io.Reader) (attachment.Uploaded, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         folder,
		UseFilename:    boolPtr(true),
		UniqueFilename: boolPtr(true),
		ResourceType:   "auto",
	})
	if err != nil {
		return attachment.Uploaded{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return attachment.Uploaded{}, fmt.Errorf("upload %s: %s", filename, res.Error.Message)
	}
	return attachment.Uploaded{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (s *store) Delete(ctx context.Context, publicID string) error {
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
