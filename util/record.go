// util/record.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// RecordWriter writes a stream of msgpack-encoded objects to a
// zstd-compressed file.
type RecordWriter struct {
	f   *os.File
	zw  *zstd.Encoder
	enc *msgpack.Encoder
	n   int
}

func NewRecordWriter(path string) (*RecordWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &RecordWriter{f: f, zw: zw, enc: msgpack.NewEncoder(zw)}, nil
}

func (w *RecordWriter) Write(obj any) error {
	w.n++
	return w.enc.Encode(obj)
}

// Count returns the number of objects written so far.
func (w *RecordWriter) Count() int {
	return w.n
}

func (w *RecordWriter) Close() error {
	return errors.Join(w.zw.Close(), w.f.Close())
}

// ReadRecords decodes each object in a file written by a RecordWriter,
// calling decode with a decoder positioned at the next object until
// the file is exhausted.
func ReadRecords(path string, decode func(*msgpack.Decoder) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	for {
		if err := decode(dec); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
	}
}
