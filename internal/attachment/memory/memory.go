// Package memory keeps inquiry attachments in process for DEV_MODE and tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/egannguyen/jewellery-storefront/internal/attachment"
)

// Store is an in-memory attachment.Store.
type Store struct {
	mu      sync.Mutex
	files   map[string][]byte
	baseURL string
}

// NewStore creates a Store whose URLs start with baseURL.
func NewStore(baseURL string) *Store {
	return &Store{files: make(map[string][]byte), baseURL: baseURL}
}

func (s *Store) Upload(ctx context.Context, filename string, r io.Reader) (attachment.Uploaded, error) {
	data, err := io.ReadAll(io.LimitReader(r, attachment.MaxFileSize+1))
	if err != nil {
		return attachment.Uploaded{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if len(data) > attachment.MaxFileSize {
		return attachment.Uploaded{}, fmt.Errorf("%s exceeds %d bytes", filename, attachment.MaxFileSize)
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.files[id] = data
	s.mu.Unlock()
	return attachment.Uploaded{URL: fmt.Sprintf("%s/%s/%s", s.baseURL, id, filename), PublicID: id}, nil
}

func (s *Store) Delete(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, publicID)
	return nil
}

// Len is the number of stored files.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
