// Package storage hosts user images on an S3-compatible object store.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned by Disabled when no bucket is configured.
	ErrNotConfigured = errors.New("image hosting is not configured")
	// ErrInvalidImage is returned when an upload payload is not a decodable image.
	ErrInvalidImage = errors.New("invalid image payload")
)

// ImageStore uploads images and deletes them by their hosted URL.
type ImageStore interface {
	// Upload accepts a data URI or raw base64 image and returns its public URL.
	Upload(ctx context.Context, payload string) (string, error)
	// Delete removes the image behind url. URLs the store does not own are ignored.
	Delete(ctx context.Context, url string) error
}

// Disabled is the ImageStore used when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error {
	return nil
}
