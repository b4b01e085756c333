package bytestream

import (
	"context"

	"github.com/paulodamaso/artipie-asto/pkg/blockio"
)

// Flatten expands a stream of blocks into a stream of individual bytes,
// preserving order within and across blocks. The source's terminal outcome
// carries over unchanged; ctx cancellation terminates the output early.
func Flatten(ctx context.Context, src *BlockStream) *ByteStream {
	out := NewByteStream(0)
	go func() {
		for {
			select {
			case block, ok := <-src.Blocks():
				if !ok {
					out.CloseSend(src.Err())
					return
				}
				for _, b := range block {
					if err := out.Send(ctx, b); err != nil {
						out.CloseSend(err)
						return
					}
				}
			case <-ctx.Done():
				out.CloseSend(ctx.Err())
				return
			}
		}
	}()
	return out
}

// Rechunk groups a byte stream into blocks of at most max bytes, in input
// order; the last block may be shorter. The partial buffer is the only
// state, and it never holds more than max bytes. A source failure is
// propagated without flushing the partial buffer, so no short block is
// emitted after a fault.
func Rechunk(ctx context.Context, src *ByteStream, max int) *BlockStream {
	if max <= 0 {
		max = DefaultBufferSize
	}
	out := NewBlockStream(0)
	go func() {
		buf := make([]byte, 0, max)
		flush := func() error {
			if len(buf) == 0 {
				return nil
			}
			block := append(blockio.Block(nil), buf...)
			buf = buf[:0]
			return out.Send(ctx, block)
		}
		for {
			select {
			case b, ok := <-src.Bytes():
				if !ok {
					if err := src.Err(); err != nil {
						out.CloseSend(err)
						return
					}
					if err := flush(); err != nil {
						out.CloseSend(err)
						return
					}
					out.CloseSend(nil)
					return
				}
				buf = append(buf, b)
				if len(buf) == max {
					if err := flush(); err != nil {
						out.CloseSend(err)
						return
					}
				}
			case <-ctx.Done():
				out.CloseSend(ctx.Err())
				return
			}
		}
	}()
	return out
}
