package blockio

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DefaultReadBlockSize is the block size used by FileProvider reads when
// none is configured.
const DefaultReadBlockSize = 64 * 1024

// FileProvider implements Provider on top of the local filesystem.
type FileProvider struct {
	readBlockSize int
}

// NewFileProvider creates a FileProvider reading blocks of blockSize bytes.
// A non-positive blockSize falls back to DefaultReadBlockSize.
func NewFileProvider(blockSize int) *FileProvider {
	if blockSize <= 0 {
		blockSize = DefaultReadBlockSize
	}
	return &FileProvider{readBlockSize: blockSize}
}

// OpenRead opens the file at path for reading.
func (p *FileProvider) OpenRead(ctx context.Context, path string) (BlockSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for read: %w", err)
	}
	return &fileSource{f: f, blockSize: p.readBlockSize}, nil
}

// OpenWrite opens the file at path for writing, truncating existing content.
func (p *FileProvider) OpenWrite(ctx context.Context, path string) (BlockSink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for write: %w", err)
	}
	return &fileSink{f: f}, nil
}

type fileSource struct {
	f         *os.File
	blockSize int
}

func (s *fileSource) Next(ctx context.Context) (Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, s.blockSize)
	n, err := s.f.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		err = io.EOF
	}
	if err != io.EOF {
		err = fmt.Errorf("read failed: %w", err)
	}
	return nil, err
}

func (s *fileSource) Close() error {
	return s.f.Close()
}

type fileSink struct {
	f *os.File
}

func (s *fileSink) Write(ctx context.Context, b Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.f.Write(b); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close syncs before closing so a nil return really means the bytes
// reached the disk, not just the page cache.
func (s *fileSink) Close() error {
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		return fmt.Errorf("sync failed: %w", err)
	}
	return s.f.Close()
}
