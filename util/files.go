// util/files.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Unfortunately, unlike io.ReadCloser, the zstd Decoder's Close() method
// doesn't return an error, so we need to make our own custom ReadCloser
// interface.
type ResourceReadCloser interface {
	io.Reader
	Close()
}

type bytesReadCloser struct {
	*bytes.Reader
}

func (bytesReadCloser) Close() {}

// OpenFile provides a ResourceReadCloser to access the specified file;
// if it's zstd compressed, the Reader will handle decompression
// transparently.
func OpenFile(path string) (ResourceReadCloser, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	br := bytesReadCloser{bytes.NewReader(f)}

	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}
		return zr, nil
	}
	return br, nil
}

// ReadFileBytes returns the (decompressed, if need be) contents of the
// given file.
func ReadFileBytes(path string) ([]byte, error) {
	r, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
