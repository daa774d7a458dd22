// util/util_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() || e.Err() != nil {
		t.Fatalf("fresh ErrorLogger reports errors")
	}

	e.Push("aircraft")
	e.Push("AAL123")
	e.ErrorString("unknown fix %q", "FOOBR")
	e.Pop()
	if d := e.CurrentDepth(); d != 1 {
		t.Errorf("depth %d after pop, expected 1", d)
	}
	e.Pop()
	e.ErrorString("no aircraft")

	if !e.HaveErrors() {
		t.Fatalf("expected errors")
	}
	lines := strings.Split(e.String(), "\n")
	expected := []string{`aircraft / AAL123: unknown fix "FOOBR"`, "no aircraft"}
	if !slices.Equal(lines, expected) {
		t.Errorf("got %q, expected %q", lines, expected)
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	if k := SortedMapKeys(m); !slices.Equal(k, []string{"a", "b", "c"}) {
		t.Errorf("got %v", k)
	}
}

func TestOpenFileZstd(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`{"hello": "world"}`)

	plain := filepath.Join(dir, "plain.json")
	if err := os.WriteFile(plain, contents, 0o644); err != nil {
		t.Fatal(err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "compressed.json.zst")
	if err := os.WriteFile(compressed, enc.EncodeAll(contents, nil), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, fn := range []string{plain, compressed} {
		b, err := ReadFileBytes(fn)
		if err != nil {
			t.Errorf("%s: %v", fn, err)
		} else if string(b) != string(contents) {
			t.Errorf("%s: got %q", fn, b)
		}
	}

	if _, err := ReadFileBytes(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestRecords(t *testing.T) {
	type rec struct {
		Tick     int
		Callsign string
	}
	fn := filepath.Join(t.TempDir(), "events.msgpack.zst")

	w, err := NewRecordWriter(fn)
	if err != nil {
		t.Fatal(err)
	}
	written := []rec{{1, "AAL1"}, {2, "UAL2"}, {2, "JBU3"}}
	for _, r := range written {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if w.Count() != len(written) {
		t.Errorf("count %d, expected %d", w.Count(), len(written))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var read []rec
	err = ReadRecords(fn, func(dec *msgpack.Decoder) error {
		var r rec
		if err := dec.Decode(&r); err != nil {
			return err
		}
		read = append(read, r)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(read, written) {
		t.Errorf("read %v, expected %v", read, written)
	}
}

func TestLoggingMutexLogValue(t *testing.T) {
	var mu LoggingMutex
	var wg sync.WaitGroup
	done := make(chan struct{})

	// Reporting on the holder from goroutines that don't hold the lock
	// must not race with acquisition and release.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				_ = mu.LogValue().Group()
			}
		}
	}()

	var count int
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				mu.Lock(nil)
				count++
				mu.Unlock(nil)
			}
		}()
	}

	for range 100 {
		_ = mu.LogValue()
	}
	close(done)
	wg.Wait()

	if count != 800 {
		t.Errorf("count %d, expected 800", count)
	}
	if attrs := mu.LogValue().Group(); len(attrs) != 3 {
		t.Errorf("expected 3 attributes, got %v", attrs)
	}
}
