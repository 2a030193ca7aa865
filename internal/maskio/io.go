// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package maskio decodes source images and encodes masks losslessly.
package maskio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	// Source image formats.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/maskcanvas/internal/mask"
)

// I/O errors.
var (
	// ErrEmptyData is returned when there is nothing to decode.
	ErrEmptyData = errors.New("maskio: empty data")

	// ErrBadMask is returned when decoded mask bytes are not a valid mask
	// for the requested size.
	ErrBadMask = errors.New("maskio: bad mask image")
)

// DecodeImage decodes a source image, auto-detecting the format.
// Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("maskio: decode: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, format, fmt.Errorf("maskio: decode: empty %s image", format)
	}
	return img, format, nil
}

// DecodeHeader reads only the image header from r, so the size can be
// checked before any pixel is decoded. The returned reader replays the
// consumed bytes followed by the rest of r; pass it to DecodeImage.
func DecodeHeader(r io.Reader) (image.Config, string, io.Reader, error) {
	var head bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return image.Config{}, "", nil, fmt.Errorf("maskio: decode header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, format, nil, fmt.Errorf("maskio: decode header: empty %s image", format)
	}
	return cfg, format, io.MultiReader(&head, r), nil
}

// DecodeImageBytes decodes a source image from memory.
func DecodeImageBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	return DecodeImage(bytes.NewReader(data))
}

// EncodeMask writes a width*height mask as an 8-bit grayscale PNG at best
// compression. The encoding is lossless; decoding it with DecodeMask
// returns the same bytes.
func EncodeMask(w io.Writer, data []uint8, width, height int) error {
	if width <= 0 || height <= 0 || len(data) != width*height {
		return fmt.Errorf("%w: %dx%d with %d bytes", ErrBadMask, width, height, len(data))
	}
	img := &image.Gray{
		Pix:    data,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("maskio: encode PNG: %w", err)
	}
	return nil
}

// EncodeMaskBytes is EncodeMask into a new byte slice.
func EncodeMaskBytes(data []uint8, width, height int) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeMask(&buf, data, width, height); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMask decodes PNG mask bytes into a mask buffer. Any pixel with
// luminance of at least 128 becomes mask.On.
func DecodeMask(data []byte) (*mask.Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("maskio: decode PNG: %w", err)
	}
	b := img.Bounds()
	buf, err := mask.New(b.Dx(), b.Dy())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMask, err)
	}

	if g, ok := img.(*image.Gray); ok {
		for y := range b.Dy() {
			copy(buf.Data()[y*b.Dx():(y+1)*b.Dx()], g.Pix[y*g.Stride:])
		}
		mask.Repair(buf.Data())
		return buf, nil
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*bl) / 1000
			buf.Set(x-b.Min.X, y-b.Min.Y, lum >= 0x8000)
		}
	}
	return buf, nil
}
