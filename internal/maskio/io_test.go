// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package maskio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func TestEncodeDecodeMask(t *testing.T) {
	const w, h = 37, 19
	data := make([]uint8, w*h)
	for i := range data {
		if i%3 == 0 {
			data[i] = 255
		}
	}

	enc, err := EncodeMaskBytes(data, w, h)
	if err != nil {
		t.Fatalf("EncodeMaskBytes: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, w, h) {
		t.Errorf("bounds = %v, want %dx%d", img.Bounds(), w, h)
	}

	buf, err := DecodeMask(enc)
	if err != nil {
		t.Fatalf("DecodeMask: %v", err)
	}
	if !bytes.Equal(buf.Data(), data) {
		t.Error("mask did not survive the round trip")
	}
}

func TestEncodeMaskBadSize(t *testing.T) {
	if _, err := EncodeMaskBytes(make([]uint8, 10), 4, 4); !errors.Is(err, ErrBadMask) {
		t.Errorf("expected ErrBadMask, got %v", err)
	}
}

func TestDecodeImageFormats(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := range src.Pix {
		src.Pix[i] = 200
	}

	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
		format string
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, src) }, "png"},
		{"jpeg", func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) }, "jpeg"},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }, "bmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			if err := tt.encode(&b); err != nil {
				t.Fatalf("encode: %v", err)
			}
			img, format, err := DecodeImageBytes(b.Bytes())
			if err != nil {
				t.Fatalf("DecodeImageBytes: %v", err)
			}
			if format != tt.format {
				t.Errorf("format = %q, want %q", format, tt.format)
			}
			if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
				t.Errorf("bounds = %v", img.Bounds())
			}
		})
	}
}

func TestDecodeHeaderThenImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 2))
	for x := range 300 {
		src.Set(x, 1, color.RGBA{R: uint8(x), G: 7, B: 9, A: 255})
	}

	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			if err := tt.encode(&b); err != nil {
				t.Fatalf("encode: %v", err)
			}
			cfg, format, rest, err := DecodeHeader(&b)
			if err != nil {
				t.Fatalf("DecodeHeader: %v", err)
			}
			if cfg.Width != 300 || cfg.Height != 2 || format != tt.name {
				t.Errorf("header = %dx%d %q", cfg.Width, cfg.Height, format)
			}
			img, _, err := DecodeImage(rest)
			if err != nil {
				t.Fatalf("DecodeImage after header: %v", err)
			}
			r, g, _, _ := img.At(299, 1).RGBA()
			if r>>8 != 299&0xff || g>>8 != 7 {
				t.Errorf("pixel (299,1) = %v", img.At(299, 1))
			}
		})
	}
}

func TestDecodeHeaderGarbage(t *testing.T) {
	if _, _, _, err := DecodeHeader(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func TestEncodeMaskBestCompression(t *testing.T) {
	const w, h = 256, 128
	data := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			if (x/16+y/16)%2 == 0 {
				data[y*w+x] = 255
			}
		}
	}
	got, err := EncodeMaskBytes(data, w, h)
	if err != nil {
		t.Fatal(err)
	}

	var fast bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&fast, &image.Gray{Pix: data, Stride: w, Rect: image.Rect(0, 0, w, h)}); err != nil {
		t.Fatal(err)
	}
	if len(got) > fast.Len() {
		t.Errorf("mask PNG is %d bytes, larger than the best-speed %d", len(got), fast.Len())
	}
}

func TestDecodeImageGarbage(t *testing.T) {
	if _, _, err := DecodeImageBytes([]byte("not an image")); err == nil {
		t.Error("expected an error for garbage input")
	}
	if _, _, err := DecodeImageBytes(nil); !errors.Is(err, ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}
}

func TestDecodeMaskFromRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.Black)
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		t.Fatal(err)
	}
	buf, err := DecodeMask(b.Bytes())
	if err != nil {
		t.Fatalf("DecodeMask: %v", err)
	}
	if buf.At(0, 0) != 255 || buf.At(1, 0) != 0 {
		t.Errorf("got %d,%d; want 255,0", buf.At(0, 0), buf.At(1, 0))
	}
}
