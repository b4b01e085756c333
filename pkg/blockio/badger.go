package blockio

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
)

// BadgerProvider stores file content as ordered blocks inside a BadgerDB.
// Each block is one key `block:<hex path>:<index>` with a zero-padded index
// so badger's key order is the block order; the path is hex-encoded so one
// path's key prefix can never cover another's. Every Write commits its own
// transaction, which is the per-block acknowledgment.
type BadgerProvider struct {
	db *badger.DB
}

// OpenBadgerProvider opens (or creates) a BadgerDB at the given path.
func OpenBadgerProvider(dbPath string) (*BadgerProvider, error) {
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %v", err)
	}
	return &BadgerProvider{db: db}, nil
}

// Close closes the underlying BadgerDB.
func (p *BadgerProvider) Close() error {
	return p.db.Close()
}

func blockKey(path string, index uint64) []byte {
	return []byte(fmt.Sprintf("block:%s:%012d", hex.EncodeToString([]byte(path)), index))
}

func blockPrefix(path string) []byte {
	return []byte(fmt.Sprintf("block:%s:", hex.EncodeToString([]byte(path))))
}

// OpenRead opens the blocks stored under path for in-order reading.
func (p *BadgerProvider) OpenRead(ctx context.Context, path string) (BlockSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found := false
	err := p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Seek(blockPrefix(path))
		found = it.ValidForPrefix(blockPrefix(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for read: %v", path, err)
	}
	if !found {
		return nil, fmt.Errorf("failed to open %s for read: not found", path)
	}
	return &badgerSource{db: p.db, path: path}, nil
}

// OpenWrite opens path for writing, dropping any previously stored blocks.
func (p *BadgerProvider) OpenWrite(ctx context.Context, path string) (BlockSink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err := p.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		var stale [][]byte
		for it.Seek(blockPrefix(path)); it.ValidForPrefix(blockPrefix(path)); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		// Empty saves must still leave a readable zero-length entry.
		return txn.Set(blockKey(path, 0), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for write: %v", path, err)
	}
	return &badgerSink{db: p.db, path: path}, nil
}

type badgerSource struct {
	db    *badger.DB
	path  string
	index uint64
	done  bool
}

func (s *badgerSource) Next(ctx context.Context) (Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, io.EOF
	}
	var block Block
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(s.path, s.index))
		if err != nil {
			return err
		}
		block, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		s.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read failed: %v", err)
	}
	s.index++
	if len(block) == 0 {
		// The zero-length sentinel written at open time; skip over it.
		return s.Next(ctx)
	}
	return block, nil
}

func (s *badgerSource) Close() error { return nil }

type badgerSink struct {
	db    *badger.DB
	path  string
	index uint64
}

func (s *badgerSink) Write(ctx context.Context, b Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	// Index 0 holds the open-time sentinel; content starts at 1.
	s.index++
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(s.path, s.index), b)
	})
	if err != nil {
		return fmt.Errorf("write failed: %v", err)
	}
	return nil
}

func (s *badgerSink) Close() error { return nil }
