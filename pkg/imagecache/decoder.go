// Package imagecache implements the bounded store for decoded images.
//
// Decoded image handles have a native memory cost the application cannot
// cheaply observe, so unlike the byte-budgeted data store this cache
// budgets by entry count: when the count passes a high watermark, the
// oldest half is dropped in one batch. The coarse policy keeps the insert
// path cheap, with the maintenance scheduler re-running the trim
// periodically for entries that go cold.
package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	// Register decoders for the formats the client ships assets in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Quality selects the scaling kernel used when a decode requests target
// dimensions. Higher quality costs more CPU per decode.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
)

// DecodeOptions carries the optional resize parameters for a decode.
// Zero TargetWidth/TargetHeight means "keep the source dimension"; when
// only one is set the other follows the source aspect ratio.
type DecodeOptions struct {
	TargetWidth  int
	TargetHeight int
	Quality      Quality
}

// Decoder converts raw bytes into a decoded image, optionally scaled.
//
// Treated as a pure, possibly slow collaborator. Implementations must be
// safe for concurrent use.
type Decoder interface {
	Decode(ctx context.Context, raw []byte, opts DecodeOptions) (image.Image, error)
}

// StdDecoder decodes via the registered image formats (png, jpeg, gif,
// webp) and scales with x/image/draw.
type StdDecoder struct{}

// Decode decodes raw and scales it to the requested target dimensions.
func (StdDecoder) Decode(ctx context.Context, raw []byte, opts DecodeOptions) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	w, h := targetSize(img.Bounds(), opts)
	if w == img.Bounds().Dx() && h == img.Bounds().Dy() {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scalerFor(opts.Quality).Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	return dst, nil
}

// targetSize resolves the output dimensions, preserving aspect ratio when
// only one target dimension is given.
func targetSize(src image.Rectangle, opts DecodeOptions) (int, int) {
	sw, sh := src.Dx(), src.Dy()
	w, h := opts.TargetWidth, opts.TargetHeight

	// A decoder may yield a zero-area image; nothing to scale against.
	if sw == 0 || sh == 0 {
		return sw, sh
	}

	switch {
	case w <= 0 && h <= 0:
		return sw, sh
	case w <= 0:
		return sw * h / sh, h
	case h <= 0:
		return w, sh * w / sw
	default:
		return w, h
	}
}

// scalerFor maps a quality level to a draw scaler.
func scalerFor(q Quality) draw.Scaler {
	switch q {
	case QualityLow:
		return draw.NearestNeighbor
	case QualityHigh:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}
