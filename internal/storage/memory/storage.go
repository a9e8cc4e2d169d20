// Package memory keeps uploaded media in process memory. It backs the
// memory storage driver used for local runs.
package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dtroode/session-server/internal/model"
)

var _ model.Storage = (*Storage)(nil)

type Storage struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

// Object is a stored file.
type Object struct {
	Data        []byte
	ContentType string
}

func NewStorage(baseURL string) *Storage {
	return &Storage{
		objects: make(map[string]Object),
		baseURL: strings.TrimRight(baseURL, "/") + "/",
	}
}

func (s *Storage) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	s.mu.Lock()
	s.objects[key] = Object{Data: data, ContentType: contentType}
	s.mu.Unlock()

	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	return ok, nil
}

// Get returns a stored object.
func (s *Storage) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

func (s *Storage) URL(key string) string {
	return s.baseURL + key
}

func (s *Storage) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
