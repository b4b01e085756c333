package blockio

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryProvider is a pure in-memory Provider for tests or lightweight
// storage. Contents live in a map keyed by path; reads see a snapshot taken
// at open time, writes replace the path's content when the sink is closed.
type MemoryProvider struct {
	mu            sync.RWMutex
	files         map[string][]byte
	readBlockSize int
}

// NewMemoryProvider creates an empty MemoryProvider reading blocks of
// blockSize bytes. A non-positive blockSize falls back to
// DefaultReadBlockSize.
func NewMemoryProvider(blockSize int) *MemoryProvider {
	if blockSize <= 0 {
		blockSize = DefaultReadBlockSize
	}
	return &MemoryProvider{
		files:         make(map[string][]byte),
		readBlockSize: blockSize,
	}
}

// Put seeds the provider with content at path.
func (p *MemoryProvider) Put(path string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[path] = append([]byte(nil), data...)
}

// Content returns a copy of the content stored at path.
func (p *MemoryProvider) Content(path string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// OpenRead opens the content at path for reading.
func (p *MemoryProvider) OpenRead(ctx context.Context, path string) (BlockSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	data, ok := p.files[path]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("failed to open %s for read: not found", path)
	}
	return &memorySource{data: data, blockSize: p.readBlockSize}, nil
}

// OpenWrite opens path for writing. Pre-existing content is dropped at
// open time, matching os.Create's truncating write mode; an abandoned
// sink leaves whatever partial content it managed to flush.
func (p *MemoryProvider) OpenWrite(ctx context.Context, path string) (BlockSink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.files[path] = nil
	p.mu.Unlock()
	return &memorySink{provider: p, path: path}, nil
}

type memorySource struct {
	data      []byte
	blockSize int
	off       int
}

func (s *memorySource) Next(ctx context.Context) (Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.off >= len(s.data) {
		return nil, io.EOF
	}
	end := s.off + s.blockSize
	if end > len(s.data) {
		end = len(s.data)
	}
	b := append([]byte(nil), s.data[s.off:end]...)
	s.off = end
	return b, nil
}

func (s *memorySource) Close() error { return nil }

type memorySink struct {
	provider *MemoryProvider
	path     string
	buf      []byte
}

func (s *memorySink) Write(ctx context.Context, b Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.buf = append(s.buf, b...)
	s.provider.mu.Lock()
	s.provider.files[s.path] = s.buf
	s.provider.mu.Unlock()
	return nil
}

func (s *memorySink) Close() error { return nil }
