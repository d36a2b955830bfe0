// Package attachment stores files shoppers attach to bespoke inquiries.
package attachment

import (
	"context"
	"io"
)

// MaxFiles is the most attachments one inquiry may carry.
const MaxFiles = 5

// MaxFileSize bounds a single upload, in bytes.
const MaxFileSize = 10 << 20

// Uploaded is a stored file.
type Uploaded struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Store uploads and deletes attachment files.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}
