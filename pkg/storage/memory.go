package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryGateway is an in-process Gateway used in development and tests.
type MemoryGateway struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	// UploadErr, when set, makes every Upload fail with this error.
	UploadErr error
	// DeleteErr, when set, makes every Delete fail with this error.
	DeleteErr error
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{objects: make(map[string][]byte)}
}

func (g *MemoryGateway) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if g.UploadErr != nil {
		return "", g.UploadErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[key] = data
	return key, nil
}

func (g *MemoryGateway) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("mem://signed/%s?expires=%d", path, int64(ttl.Seconds())), nil
}

func (g *MemoryGateway) Delete(ctx context.Context, path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.deleted = append(g.deleted, path)
	if g.DeleteErr != nil {
		return g.DeleteErr
	}
	delete(g.objects, path)
	return nil
}

// Exists reports whether an object is currently stored under key.
func (g *MemoryGateway) Exists(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.objects[key]
	return ok
}

// Count returns the number of stored objects.
func (g *MemoryGateway) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.objects)
}

// Deleted returns every path a Delete was issued for, in order.
func (g *MemoryGateway) Deleted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.deleted))
	copy(out, g.deleted)
	return out
}
