// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package canvas

import (
	"bytes"
	"context"
	"io"
	"os"
)

// Source provides the encoded bytes of the image to edit.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads the image from a file path.
type FileSource string

// Open implements Source.
func (f FileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(string(f))
}

// BytesSource reads the image from memory.
type BytesSource []byte

// Open implements Source.
func (b BytesSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// ReaderSource adapts a function, such as one that streams from a host
// cache, to Source.
type ReaderSource func(ctx context.Context) (io.ReadCloser, error)

// Open implements Source.
func (f ReaderSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return f(ctx)
}
