package services

import (
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/kendall-kelly/mechanic-shop-api/utils"
)

// MockPhotoService is an in-memory PhotoService used by tests. It records
// uploaded keys and serves stable fake URLs without touching AWS.
type MockPhotoService struct {
	mu      sync.Mutex
	counter int
	photos  map[string]bool

	// FailUpload forces UploadPhoto to return an error
	FailUpload bool
}

// NewMockPhotoService creates an empty mock photo service
func NewMockPhotoService() *MockPhotoService {
	return &MockPhotoService{
		photos: make(map[string]bool),
	}
}

// UploadPhoto validates the file like the real service, then records a fake key
func (m *MockPhotoService) UploadPhoto(ticketID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidatePhotoFile(fileHeader); err != nil {
		return "", err
	}

	if m.FailUpload {
		return "", fmt.Errorf("mock upload failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	key := fmt.Sprintf("tickets/%d/mock_%d_%s", ticketID, m.counter, fileHeader.Filename)
	m.photos[key] = true
	return key, nil
}

// GetPhotoURL returns a deterministic fake URL for a stored key
func (m *MockPhotoService) GetPhotoURL(photoKey string) (string, error) {
	if photoKey == "" {
		return "", nil
	}
	return "https://mock-bucket.example.com/" + photoKey, nil
}

// DeletePhoto removes a stored key
func (m *MockPhotoService) DeletePhoto(photoKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.photos, photoKey)
	return nil
}

// HasPhoto reports whether a key was uploaded and not deleted
func (m *MockPhotoService) HasPhoto(photoKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.photos[photoKey]
}
