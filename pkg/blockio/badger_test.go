package blockio

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func openBadger(t *testing.T) *BadgerProvider {
	t.Helper()
	provider, err := OpenBadgerProvider(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open badger provider: %v", err)
	}
	t.Cleanup(func() { provider.Close() })
	return provider
}

func writeAll(t *testing.T, provider Provider, path string, blocks ...[]byte) {
	t.Helper()
	sink, err := provider.OpenWrite(context.Background(), path)
	if err != nil {
		t.Fatalf("open for write failed: %v", err)
	}
	for _, b := range blocks {
		if err := sink.Write(context.Background(), b); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestBadgerProviderRoundTrip(t *testing.T) {
	provider := openBadger(t)
	writeAll(t, provider, "a/b.bin", []byte("hello "), []byte("badger"))

	src, err := provider.OpenRead(context.Background(), "a/b.bin")
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()
	if got := drain(t, src); !bytes.Equal(got, []byte("hello badger")) {
		t.Errorf("content mismatch: %q", got)
	}
}

func TestBadgerProviderEmptyFile(t *testing.T) {
	provider := openBadger(t)
	writeAll(t, provider, "empty.bin")

	src, err := provider.OpenRead(context.Background(), "empty.bin")
	if err != nil {
		t.Fatalf("an empty save must still be readable: %v", err)
	}
	defer src.Close()
	if got := drain(t, src); len(got) != 0 {
		t.Errorf("expected zero bytes, got %d", len(got))
	}
}

func TestBadgerProviderTruncatesOnRewrite(t *testing.T) {
	provider := openBadger(t)
	writeAll(t, provider, "f.bin", []byte("a much longer first version"))
	writeAll(t, provider, "f.bin", []byte("short"))

	src, err := provider.OpenRead(context.Background(), "f.bin")
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()
	if got := drain(t, src); !bytes.Equal(got, []byte("short")) {
		t.Errorf("expected the rewrite to win, got %q", got)
	}
}

func TestBadgerProviderColonPathsDoNotCollide(t *testing.T) {
	provider := openBadger(t)
	writeAll(t, provider, "a:b", []byte("sibling content"))
	writeAll(t, provider, "a", []byte("own content"))

	for path, want := range map[string]string{
		"a:b": "sibling content",
		"a":   "own content",
	} {
		src, err := provider.OpenRead(context.Background(), path)
		if err != nil {
			t.Fatalf("open %s for read failed: %v", path, err)
		}
		got := drain(t, src)
		src.Close()
		if !bytes.Equal(got, []byte(want)) {
			t.Errorf("path %s: got %q, want %q", path, got, want)
		}
	}
}

func TestBadgerProviderPrefixPathNotFound(t *testing.T) {
	provider := openBadger(t)
	writeAll(t, provider, "a:b", []byte("content"))

	// "a" shares a name prefix with "a:b" but was never written.
	if _, err := provider.OpenRead(context.Background(), "a"); err == nil {
		t.Fatal("expected open of an unwritten path to fail")
	}
}

func TestBadgerProviderMissingPath(t *testing.T) {
	provider := openBadger(t)
	if _, err := provider.OpenRead(context.Background(), "never-written"); err == nil {
		t.Fatal("expected open of an unknown path to fail")
	}
}

func TestBadgerProviderBlockOrder(t *testing.T) {
	provider := openBadger(t)
	var blocks [][]byte
	var want []byte
	for i := 0; i < 20; i++ {
		b := bytes.Repeat([]byte{byte('a' + i)}, 3)
		blocks = append(blocks, b)
		want = append(want, b...)
	}
	writeAll(t, provider, "ordered.bin", blocks...)

	src, err := provider.OpenRead(context.Background(), "ordered.bin")
	if err != nil {
		t.Fatalf("open for read failed: %v", err)
	}
	defer src.Close()

	var got []byte
	for {
		block, err := src.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		got = append(got, block...)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("blocks came back out of order")
	}
}
