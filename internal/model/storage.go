package model

import (
	"context"
	"io"
)

// Storage stores uploaded media and hands out retrieval URLs.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
	KeyFromURL(url string) (string, bool)
}

// Upload is a media file received from the transport.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}
