package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// mediaStore keeps profile photos on the media CDN. Every upload gets a
// new public ID, so replacing a photo never overwrites the previous asset.
type mediaStore interface {
	UploadProfilePhoto(ctx context.Context, file io.Reader, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, photoURL string) error
}

type cloudinaryMedia struct {
	cld *cloudinary.Cloudinary
}

const profilePhotoFolder = "profile_photos"

func (m *cloudinaryMedia) UploadProfilePhoto(ctx context.Context, file io.Reader, userID uuid.UUID) (string, error) {
	resp, err := m.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         profilePhotoFolder,
		PublicID:       fmt.Sprintf("%s_%d", userID, time.Now().Unix()),
		Overwrite:      api.Bool(false),
		Transformation: "w_300,h_300,c_fill,q_auto", // Resize to 300x300, auto quality
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (m *cloudinaryMedia) Delete(ctx context.Context, photoURL string) error {
	publicID, err := publicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	if _, err := m.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}
	return nil
}

// publicIDFromURL strips the delivery prefix, version segment and file
// extension from a Cloudinary URL:
// https://res.cloudinary.com/demo/image/upload/v17/profile_photos/abc.jpg -> profile_photos/abc
func publicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(parsedURL.Path, "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		if len(rest) > 1 && strings.HasPrefix(rest[0], "v") && strings.Trim(rest[0][1:], "0123456789") == "" {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		return strings.TrimSuffix(id, path.Ext(id)), nil
	}

	return "", errors.New("failed to extract public ID from URL")
}
