package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGatewayRoundTrip(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	path, err := g.Upload(ctx, "conversations/c1/file.png", strings.NewReader("payload"), 7, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "conversations/c1/file.png", path)
	assert.True(t, g.Exists(path))
	assert.Equal(t, 1, g.Count())

	url, err := g.SignedURL(ctx, path, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, path)

	require.NoError(t, g.Delete(ctx, path))
	assert.False(t, g.Exists(path))
	assert.Equal(t, []string{path}, g.Deleted())
}

func TestMemoryGatewayErrorInjection(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	g.UploadErr = fmt.Errorf("disk full")
	_, err := g.Upload(ctx, "k", strings.NewReader("x"), 1, "text/plain")
	require.Error(t, err)
	assert.Equal(t, 0, g.Count())

	g.UploadErr = nil
	_, err = g.Upload(ctx, "k", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)

	// Delete failures still record the attempt and keep the object.
	g.DeleteErr = fmt.Errorf("unavailable")
	require.Error(t, g.Delete(ctx, "k"))
	assert.True(t, g.Exists("k"))
	assert.Equal(t, []string{"k"}, g.Deleted())
}
