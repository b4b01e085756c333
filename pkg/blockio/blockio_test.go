package blockio

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func drain(t *testing.T, src BlockSource) []byte {
	t.Helper()
	var out []byte
	for {
		block, err := src.Next(context.Background())
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
		out = append(out, block...)
	}
}

func TestFileProviderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocks.bin")
	provider := NewFileProvider(8)
	content := []byte("the quick brown fox jumps over the lazy dog")

	sink, err := provider.OpenWrite(context.Background(), path)
	if err != nil {
		t.Fatalf("open for write failed: %v", err)
	}
	if err := sink.Write(context.Background(), content[:20]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sink.Write(context.Background(), content[20:]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	src, err := provider.OpenRead(context.Background(), path)
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()
	if got := drain(t, src); !bytes.Equal(got, content) {
		t.Errorf("content mismatch: %q", got)
	}
}

func TestFileProviderTruncatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocks.bin")
	if err := os.WriteFile(path, []byte("previous longer content"), 0644); err != nil {
		t.Fatal(err)
	}

	provider := NewFileProvider(0)
	sink, err := provider.OpenWrite(context.Background(), path)
	if err != nil {
		t.Fatalf("open for write failed: %v", err)
	}
	if err := sink.Write(context.Background(), []byte("new")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("new")) {
		t.Errorf("expected old content to be truncated, got %q", got)
	}
}

func TestFileProviderOpenReadMissing(t *testing.T) {
	provider := NewFileProvider(0)
	if _, err := provider.OpenRead(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected open of a missing file to fail")
	}
}

func TestMemoryProviderRoundTrip(t *testing.T) {
	provider := NewMemoryProvider(4)
	content := []byte("0123456789")

	sink, err := provider.OpenWrite(context.Background(), "mem.bin")
	if err != nil {
		t.Fatalf("open for write failed: %v", err)
	}
	if err := sink.Write(context.Background(), content); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	src, err := provider.OpenRead(context.Background(), "mem.bin")
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()
	if got := drain(t, src); !bytes.Equal(got, content) {
		t.Errorf("content mismatch: %q", got)
	}
}

func TestMemoryProviderBlockSize(t *testing.T) {
	provider := NewMemoryProvider(4)
	provider.Put("mem.bin", []byte("0123456789"))

	src, err := provider.OpenRead(context.Background(), "mem.bin")
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()

	var sizes []int
	for {
		block, err := src.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		sizes = append(sizes, len(block))
	}
	want := []int{4, 4, 2}
	if len(sizes) != len(want) {
		t.Fatalf("expected %v block sizes, got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("block %d: got %d bytes, want %d", i, sizes[i], want[i])
		}
	}
}

func TestMemoryProviderReadSnapshot(t *testing.T) {
	provider := NewMemoryProvider(4)
	provider.Put("mem.bin", []byte("original"))

	src, err := provider.OpenRead(context.Background(), "mem.bin")
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()

	// Overwrite while the read is in flight; the open snapshot wins.
	provider.Put("mem.bin", []byte("changed!"))
	if got := drain(t, src); !bytes.Equal(got, []byte("original")) {
		t.Errorf("expected the open-time snapshot, got %q", got)
	}
}

func TestSourceHonorsCancelledContext(t *testing.T) {
	provider := NewMemoryProvider(4)
	provider.Put("mem.bin", []byte("0123456789"))

	src, err := provider.OpenRead(context.Background(), "mem.bin")
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
