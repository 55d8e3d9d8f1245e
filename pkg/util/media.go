package util

import (
	"context"
	"time"

	"github.com/cloudinary/cloudinary-go"
	"github.com/cloudinary/cloudinary-go/api/admin"
	"github.com/cloudinary/cloudinary-go/api/uploader"
	"github.com/pkg/errors"
)

const mediaTimeout = 40 * time.Second

// InitCloudinary creates a cloudinary instance from account credentials.
func InitCloudinary(cloudName, apiKey, apiSecret string) (*cloudinary.Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	return cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
}

// ImageUploadHelper uploads input (a reader, path or URL) into folder under
// the given public id. An empty publicID lets Cloudinary pick one.
func ImageUploadHelper(ctx context.Context, cld *cloudinary.Cloudinary, folder, publicID string, input any) (uploader.UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, mediaTimeout)
	defer cancel()

	uploadRes, err := cld.Upload.Upload(ctx, input, uploader.UploadParams{Folder: folder, PublicID: publicID})
	if err != nil {
		return uploader.UploadResult{}, err
	}
	if uploadRes.PublicID == "" {
		return uploader.UploadResult{}, errors.New("cloudinary upload returned no public id")
	}

	return *uploadRes, nil
}

// ImageDeletionHelper destroys the asset with the given public id.
func ImageDeletionHelper(ctx context.Context, cld *cloudinary.Cloudinary, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, mediaTimeout)
	defer cancel()

	deleteResult, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return "", err
	}
	return deleteResult.Result, nil
}

// ImageAssetHelper looks up the delivery URL of an uploaded asset.
func ImageAssetHelper(ctx context.Context, cld *cloudinary.Cloudinary, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, mediaTimeout)
	defer cancel()

	asset, err := cld.Admin.Asset(ctx, admin.AssetParams{PublicID: publicID})
	if err != nil {
		return "", err
	}
	if asset.SecureURL == "" {
		return "", errors.Errorf("cloudinary asset %s has no delivery url", publicID)
	}
	return asset.SecureURL, nil
}
