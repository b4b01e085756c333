// Package blockio defines the asynchronous, block-oriented file handle
// abstraction that the byte streaming core is built on, together with the
// provider implementations shipped with this module: local files, an
// in-memory store, and a badger-backed store.
package blockio

import "context"

// Block is the unit of one provider I/O operation: a contiguous run of
// bytes. Blocks handed across the interface are owned by the receiver;
// implementations copy when they retain one.
type Block = []byte

// Provider opens files for block-oriented reading or writing. A handle is
// owned exclusively by the single operation that opened it and lives for
// that operation only.
type Provider interface {
	// OpenRead opens the file at path for reading.
	OpenRead(ctx context.Context, path string) (BlockSource, error)
	// OpenWrite opens the file at path for writing, truncating any
	// existing content.
	OpenWrite(ctx context.Context, path string) (BlockSink, error)
}

// BlockSource is a pull-based stream of blocks. Next returns io.EOF after
// the final block; any other error is terminal. Callers stop issuing reads
// simply by not calling Next again, and must Close the source either way.
type BlockSource interface {
	Next(ctx context.Context) (Block, error)
	Close() error
}

// BlockSink accepts blocks one at a time. Write returns only once the
// provider has acknowledged the block, so callers get a sequential write
// discipline for free. Close flushes and releases the handle; a nil return
// is the provider's durability acknowledgment.
type BlockSink interface {
	Write(ctx context.Context, b Block) error
	Close() error
}
