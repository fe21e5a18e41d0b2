package testutil

import (
	"context"
	"fmt"
	"sync"
)

// ImageStoreStub is an in-memory storage.ImageStore. Uploaded payloads get
// sequential URLs under BaseURL. UploadErr fails every upload; PayloadErrs
// fails only the listed payloads.
type ImageStoreStub struct {
	BaseURL     string
	UploadErr   error
	PayloadErrs map[string]error
	DeleteErr   error

	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

// NewImageStoreStub returns a stub serving URLs from https://img.test/.
func NewImageStoreStub() *ImageStoreStub {
	return &ImageStoreStub{BaseURL: "https://img.test"}
}

func (s *ImageStoreStub) Upload(_ context.Context, payload string) (string, error) {
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	if err := s.PayloadErrs[payload]; err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = append(s.uploaded, payload)
	return fmt.Sprintf("%s/images/%d.png", s.BaseURL, len(s.uploaded)), nil
}

func (s *ImageStoreStub) Delete(_ context.Context, url string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return nil
}

// Uploaded returns the payloads passed to Upload, in order.
func (s *ImageStoreStub) Uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploaded...)
}

// Deleted returns the URLs passed to Delete, in order.
func (s *ImageStoreStub) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}
