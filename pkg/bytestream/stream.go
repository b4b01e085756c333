// Package bytestream provides a byte-oriented streaming abstraction over a
// single file: Flow turns file contents into a lazy sequence of bytes,
// Save persists such a sequence through size-bounded buffered writes. The
// actual I/O is delegated to a blockio.Provider; this package only adapts
// between the provider's block protocol and the caller's byte protocol.
package bytestream

import (
	"context"
	"sync"

	"github.com/paulodamaso/artipie-asto/pkg/blockio"
)

// ByteStream is a lazy, ordered, finite sequence of single bytes with a
// terminal success/failure outcome. The consumer ranges over Bytes() and
// checks Err() once the channel closes; the producer pushes with Send and
// finishes with CloseSend.
type ByteStream struct {
	ch   chan byte
	once sync.Once
	err  error
}

// NewByteStream creates a stream whose channel buffers up to capacity
// bytes. Zero capacity gives a fully synchronous hand-off.
func NewByteStream(capacity int) *ByteStream {
	if capacity < 0 {
		capacity = 0
	}
	return &ByteStream{ch: make(chan byte, capacity)}
}

// StreamOf wraps a byte slice in an already-terminated stream.
func StreamOf(p []byte) *ByteStream {
	s := NewByteStream(len(p))
	for _, b := range p {
		s.ch <- b
	}
	s.CloseSend(nil)
	return s
}

// Send delivers one byte to the consumer, blocking until it is accepted
// or ctx is cancelled.
func (s *ByteStream) Send(ctx context.Context, b byte) error {
	select {
	case s.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseSend terminates the stream. A nil err means the sequence completed;
// a non-nil err is the terminal failure handed to the consumer. Only the
// first call has any effect.
func (s *ByteStream) CloseSend(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.ch)
	})
}

// Bytes returns the consumer side of the stream.
func (s *ByteStream) Bytes() <-chan byte { return s.ch }

// Err reports the terminal outcome. Valid only after Bytes() has closed.
func (s *ByteStream) Err() error { return s.err }

// ReadAll drains the stream into memory and returns its terminal outcome.
// Bytes delivered before a failure are returned alongside the error.
func ReadAll(s *ByteStream) ([]byte, error) {
	var out []byte
	for b := range s.Bytes() {
		out = append(out, b)
	}
	return out, s.Err()
}

// BlockStream is the block-level analogue of ByteStream, used between the
// provider adapters and the flatten/rechunk transforms.
type BlockStream struct {
	ch   chan blockio.Block
	once sync.Once
	err  error
}

// NewBlockStream creates a block stream buffering up to capacity blocks.
func NewBlockStream(capacity int) *BlockStream {
	if capacity < 0 {
		capacity = 0
	}
	return &BlockStream{ch: make(chan blockio.Block, capacity)}
}

// Send delivers one block to the consumer, blocking until it is accepted
// or ctx is cancelled.
func (s *BlockStream) Send(ctx context.Context, b blockio.Block) error {
	select {
	case s.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseSend terminates the stream with the given outcome. Only the first
// call has any effect.
func (s *BlockStream) CloseSend(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.ch)
	})
}

// Blocks returns the consumer side of the stream.
func (s *BlockStream) Blocks() <-chan blockio.Block { return s.ch }

// Err reports the terminal outcome. Valid only after Blocks() has closed.
func (s *BlockStream) Err() error { return s.err }
