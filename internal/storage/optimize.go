package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	_ "golang.org/x/image/webp"
)

// OptimizingStore shrinks images of selected categories before storing them
type OptimizingStore struct {
	next       BlobStore
	maxDim     int
	categories map[string]struct{}
	logger     *zap.Logger
}

// NewOptimizingStore wraps next. Images wider or taller than maxDim are fitted
// inside a maxDim square.
func NewOptimizingStore(next BlobStore, maxDim int, logger *zap.Logger, categories ...string) *OptimizingStore {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return &OptimizingStore{next: next, maxDim: maxDim, categories: set, logger: logger}
}

func (s *OptimizingStore) Store(ctx context.Context, upload Upload, category string) (string, error) {
	if err := Validate(upload); err != nil {
		return "", err
	}

	if _, ok := s.categories[category]; ok {
		optimized, err := Optimize(upload, s.maxDim)
		if err != nil {
			// an image that will not decode is stored untouched
			s.logger.Warn("Image optimization skipped",
				zap.String("file", upload.Filename),
				zap.Error(err),
			)
		} else {
			upload = optimized
		}
	}

	return s.next.Store(ctx, upload, category)
}

// Optimize fits the image inside maxDim and re-encodes it. PNG, GIF and WebP
// come out as PNG to keep transparency; everything else as JPEG.
func Optimize(upload Upload, maxDim int) (Upload, error) {
	img, err := imaging.Decode(bytes.NewReader(upload.Data), imaging.AutoOrientation(true))
	if err != nil {
		return upload, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	format, ext := imaging.JPEG, ".jpg"
	switch upload.Ext() {
	case ".png", ".gif", ".webp":
		format, ext = imaging.PNG, ".png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return upload, fmt.Errorf("failed to encode image: %w", err)
	}

	base := upload.Filename[:len(upload.Filename)-len(upload.Ext())]
	return Upload{Filename: base + ext, Data: buf.Bytes()}, nil
}
