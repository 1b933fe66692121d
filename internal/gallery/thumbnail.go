package gallery

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailMaxSize bounds both sides of a gallery grid thumbnail.
	ThumbnailMaxSize = 600

	// ThumbnailJPEGQuality is the JPEG quality for thumbnails (0-100).
	ThumbnailJPEGQuality = 85
)

// ThumbnailProcessor turns an original photo into a grid thumbnail.
type ThumbnailProcessor interface {
	// Thumbnail returns JPEG bytes fitting within maxSize x maxSize.
	Thumbnail(src io.Reader, maxSize int) ([]byte, error)
}

type imagingProcessor struct{}

// NewImagingProcessor returns a processor backed by disintegration/imaging.
func NewImagingProcessor() ThumbnailProcessor {
	return imagingProcessor{}
}

// Thumbnail decodes src honouring EXIF orientation, since site photos come
// straight off phones, and fits it within maxSize keeping aspect ratio.
func (imagingProcessor) Thumbnail(src io.Reader, maxSize int) ([]byte, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
