package trips

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/snofleet/fleet-rental-api/config"
)

// PhotoStore uploads and deletes trip photo binaries. Implementations report
// per-photo failures so a partially failed upload never blocks the workflow.
type PhotoStore interface {
	Upload(ctx context.Context, publicID string, data []byte) (url string, err error)
	Delete(ctx context.Context, publicID string) error
}

// CloudinaryStore stores trip photos in Cloudinary under the trip-photos
// folder, keyed vehicleID/tripType/position_timestamp.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore builds a store from the configured credentials.
func NewCloudinaryStore(conf *config.Config) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(conf.CloudinaryCloudName, conf.CloudinaryAPIKey, conf.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Upload pushes one photo and returns its public URL.
func (s *CloudinaryStore) Upload(ctx context.Context, publicID string, data []byte) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID: publicID,
		Folder:   "trip-photos",
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Delete removes one photo from storage.
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Result)
	}
	return nil
}
