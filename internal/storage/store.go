// Package storage keeps shipment documents: uploaded photos, QR codes and
// invoice PDFs. Keys look like "shipments/EUKAB234/invoice.pdf".
package storage

import (
	"context"
	"errors"
	"fmt"

	"eukexpress-backend/internal/config"
)

// ErrNotFound is returned by Get for a missing key
var ErrNotFound = errors.New("document not found")

// Store is a flat key/value document store
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

// New opens the store selected by cfg.Storage.Driver
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			PathStyle: cfg.Storage.PathStyle,
		})
	case "local", "":
		return NewLocalStore(cfg.Storage.LocalPath)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// ShipmentKey builds the key of a document belonging to a shipment
func ShipmentKey(tracking, name string) string {
	return "shipments/" + tracking + "/" + name
}
