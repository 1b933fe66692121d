package gallery

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/DukeRupert/svelectricals/internal/storage"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

// countingStorage counts thumbnail generations passing through Put.
type countingStorage struct {
	storage.Storage
	puts atomic.Int32
}

func (c *countingStorage) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	c.puts.Add(1)
	return c.Storage.Put(ctx, key, data, opts)
}

func newLocal(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/files"}, testLogger())
	require.NoError(t, err)
	return s
}

func TestImagingProcessor_FitsWithinBounds(t *testing.T) {
	p := NewImagingProcessor()

	data, err := p.Thumbnail(bytes.NewReader(jpegBytes(t, 1200, 800)), ThumbnailMaxSize)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestImagingProcessor_RejectsGarbage(t *testing.T) {
	_, err := NewImagingProcessor().Thumbnail(bytes.NewReader([]byte("not an image")), ThumbnailMaxSize)
	assert.Error(t, err)
}

func TestService_FallbackWithoutStorage(t *testing.T) {
	svc := NewService(domain.GalleryImages, nil, nil, testLogger())

	photos := svc.Photos(context.Background(), "Sheds")
	require.Len(t, photos, 3)
	for _, p := range photos {
		assert.Equal(t, p.FallbackURL, p.FullURL)
		assert.Equal(t, p.FallbackURL, p.ThumbURL)
	}
}

func TestService_GeneratesThumbnailOnce(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	img := domain.GalleryImages[0]
	require.NoError(t, local.Put(ctx, img.StorageKey(), bytes.NewReader(jpegBytes(t, 900, 900)), storage.PutOptions{}))

	store := &countingStorage{Storage: local}
	store.puts.Store(0)
	svc := NewService([]domain.GalleryImage{img}, store, nil, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := svc.Resolve(ctx, img)
			assert.Equal(t, "/files/"+img.ThumbnailKey(), p.ThumbURL)
			assert.Equal(t, "/files/"+img.StorageKey(), p.FullURL)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.puts.Load())
	ok, err := local.Exists(ctx, img.ThumbnailKey())
	require.NoError(t, err)
	assert.True(t, ok)

	// A fresh service finds the stored thumbnail and does not regenerate it.
	again := NewService([]domain.GalleryImage{img}, store, nil, testLogger())
	again.Resolve(ctx, img)
	assert.Equal(t, int32(1), store.puts.Load())
}

// contextStorage fails lookups once the caller's context is done, like a
// network-backed store would.
type contextStorage struct {
	storage.Storage
}

func (c contextStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.Storage.Exists(ctx, key)
}

func TestService_ResolveIgnoresCallerCancellation(t *testing.T) {
	local := newLocal(t)
	img := domain.GalleryImages[2]
	require.NoError(t, local.Put(context.Background(), img.StorageKey(), bytes.NewReader(jpegBytes(t, 300, 300)), storage.PutOptions{}))

	svc := NewService([]domain.GalleryImage{img}, contextStorage{Storage: local}, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := svc.Resolve(ctx, img)
	assert.Equal(t, "/files/"+img.StorageKey(), p.FullURL, "a cancelled caller must not force the fallback URL")
	assert.Equal(t, "/files/"+img.ThumbnailKey(), p.ThumbURL)
}

func TestService_BrokenOriginalFallsBackToFullURL(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	img := domain.GalleryImages[1]
	require.NoError(t, local.Put(ctx, img.StorageKey(), bytes.NewReader([]byte("corrupt")), storage.PutOptions{}))

	svc := NewService([]domain.GalleryImage{img}, local, nil, testLogger())
	p := svc.Resolve(ctx, img)

	assert.Equal(t, "/files/"+img.StorageKey(), p.FullURL)
	assert.Equal(t, p.FullURL, p.ThumbURL)
}

func TestService_Lightbox(t *testing.T) {
	svc := NewService(domain.GalleryImages, nil, nil, testLogger())
	ctx := context.Background()

	lb, err := svc.Lightbox(ctx, "Cranes", 3)
	require.NoError(t, err)
	assert.Equal(t, "Cranes", lb.Category)
	assert.Equal(t, 4, lb.Count)
	assert.Equal(t, 8, lb.Photo.ID)
	assert.Equal(t, 0, lb.Next)
	assert.Equal(t, 2, lb.Prev)

	lb, err = svc.Lightbox(ctx, "unknown", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryAll, lb.Category)
	assert.Equal(t, 7, lb.Prev)

	_, err = svc.Lightbox(ctx, "Maintenance", 1)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestService_Warm(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	for _, img := range domain.GalleryImages[:3] {
		require.NoError(t, local.Put(ctx, img.StorageKey(), bytes.NewReader(jpegBytes(t, 64, 48)), storage.PutOptions{}))
	}

	svc := NewService(domain.GalleryImages, local, nil, testLogger())
	require.NoError(t, svc.Warm(ctx))

	for _, img := range domain.GalleryImages[:3] {
		ok, err := local.Exists(ctx, img.ThumbnailKey())
		require.NoError(t, err)
		assert.True(t, ok, img.Slug)
	}
	svc.mu.RLock()
	assert.Len(t, svc.cache, len(domain.GalleryImages))
	svc.mu.RUnlock()
}
