package bytestream

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/paulodamaso/artipie-asto/pkg/blockio"
)

// DefaultBufferSize is the save buffer size: a block flushed to the
// provider never holds more than this many bytes.
const DefaultBufferSize = 8192

// File exposes streaming read and write over a single path. Instances are
// stateless and reusable; each Flow/Save opens its own provider handle,
// which the operation owns exclusively and releases when it finishes.
type File struct {
	path     string
	provider blockio.Provider
	bufSize  int
	settle   time.Duration
	log      logrus.FieldLogger
}

// Option configures a File.
type Option func(*File)

// WithBufferSize sets the maximum block size used when saving.
func WithBufferSize(n int) Option {
	return func(f *File) {
		if n > 0 {
			f.bufSize = n
		}
	}
}

// WithSettleDelay adds a fixed wait between the provider's completion
// acknowledgment and the success signal of Save. Some storage backends ack
// the final write before it is durable; the delay papers over that. Leave
// it at zero unless the chosen backend needs it.
func WithSettleDelay(d time.Duration) Option {
	return func(f *File) {
		if d > 0 {
			f.settle = d
		}
	}
}

// WithLogger attaches a logger to the file's operations.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *File) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFile wraps path with streaming operations backed by provider. The
// provider is a required dependency; the path is taken as-is and not
// validated here.
func NewFile(path string, provider blockio.Provider, opts ...Option) *File {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	f := &File{
		path:     path,
		provider: provider,
		bufSize:  DefaultBufferSize,
		log:      discard,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flow reads the file's content as a lazy sequence of bytes. Each call
// opens a fresh handle; the returned stream is single-use. Consumption
// drives the underlying block reads, and cancelling ctx stops further
// reads from being issued. An open or read failure terminates the stream
// with that error after whatever bytes were already delivered.
func (f *File) Flow(ctx context.Context) *ByteStream {
	opLog := f.log.WithFields(logrus.Fields{"op": uuid.NewString(), "path": f.path})
	blocks := NewBlockStream(0)
	go func() {
		src, err := f.provider.OpenRead(ctx, f.path)
		if err != nil {
			opLog.WithError(err).Error("open for read failed")
			blocks.CloseSend(err)
			return
		}
		defer src.Close()
		var count int
		for {
			block, err := src.Next(ctx)
			if err == io.EOF {
				opLog.WithField("blocks", count).Debug("read complete")
				blocks.CloseSend(nil)
				return
			}
			if err != nil {
				opLog.WithError(err).Error("block read failed")
				blocks.CloseSend(err)
				return
			}
			count++
			if err := blocks.Send(ctx, block); err != nil {
				opLog.Debug("read cancelled by consumer")
				blocks.CloseSend(err)
				return
			}
		}
	}()
	return Flatten(ctx, blocks)
}

// Save persists src to the file and returns immediately with the
// operation's completion signal. Bytes are regrouped into blocks of at
// most the configured buffer size and written strictly in order: a block
// is not sent until the provider has acknowledged the previous one. An
// open failure, a write failure, or a failure of src itself completes the
// signal with that error and aborts all remaining writes. Pre-existing
// content at the path is truncated per the provider's write mode.
func (f *File) Save(ctx context.Context, src *ByteStream) *Completion {
	done := newCompletion()
	go func() {
		done.complete(f.save(ctx, src))
	}()
	return done
}

func (f *File) save(ctx context.Context, src *ByteStream) error {
	opLog := f.log.WithFields(logrus.Fields{"op": uuid.NewString(), "path": f.path})

	// Child context so an abort unblocks the rechunk goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink, err := f.provider.OpenWrite(ctx, f.path)
	if err != nil {
		opLog.WithError(err).Error("open for write failed")
		return err
	}

	blocks := Rechunk(ctx, src, f.bufSize)
	var written int64
	for block := range blocks.Blocks() {
		if err := sink.Write(ctx, block); err != nil {
			opLog.WithError(err).WithField("written", written).Error("block write failed")
			sink.Close()
			return err
		}
		written += int64(len(block))
	}
	if err := blocks.Err(); err != nil {
		opLog.WithError(err).Error("source stream failed")
		sink.Close()
		return fmt.Errorf("source stream failed: %w", err)
	}
	if err := sink.Close(); err != nil {
		opLog.WithError(err).Error("close failed")
		return err
	}
	if f.settle > 0 {
		select {
		case <-time.After(f.settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	opLog.WithField("written", written).Debug("save complete")
	return nil
}

// Completion is the terminal signal of a Save: closed Done, then Err
// reports success (nil) or the originating fault.
type Completion struct {
	done chan struct{}
	err  error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) complete(err error) {
	c.err = err
	close(c.done)
}

// Done is closed once the operation has terminated.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Err reports the outcome. Valid only after Done is closed.
func (c *Completion) Err() error { return c.err }

// Wait blocks until the operation terminates or ctx is cancelled. The
// operation itself keeps running if only the wait is cancelled.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
