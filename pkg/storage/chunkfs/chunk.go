// Copyright 2024 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chunkfs implements the bounded-size append-only byte files
// ("chunks") the post store is segmented into, and the logical infinite
// append sequence built on top of them.
package chunkfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/logging"
)

// ChunkExt is the on-disk extension of every chunk file.
const ChunkExt = ".db3"

// DefaultMaxChunkSize is the default cap on a chunk's size, 1 GiB.
const DefaultMaxChunkSize int64 = 1 << 30

type (
	// Index identifies a chunk within its directory.
	Index = uint64

	// Offset is a byte position within a chunk.
	Offset = uint64

	// Chunk is a bounded-size append-only file identified by a
	// non-negative integer index. No handle is kept open across calls:
	// every operation opens, does its I/O, and closes the underlying
	// file.
	Chunk struct {
		dir     string
		index   Index
		maxSize int64
		logger  logging.Logger
	}
)

// IndexToName converts a chunk index to its file name ("0.db3", "1.db3"...).
func IndexToName(index Index) string {
	return strconv.FormatUint(index, 10) + ChunkExt
}

// NameToIndex converts a chunk file name back to its index.
func NameToIndex(name string) (Index, error) {
	trimmed := strings.TrimSuffix(name, ChunkExt)
	if trimmed == name {
		return 0, fmt.Errorf("%s does not have the %s extension: %w", name, ChunkExt, errors.ErrInvalid)
	}
	idx, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid chunk name: %w", name, errors.ErrInvalid)
	}
	return idx, nil
}

func newChunk(dir string, index Index, maxSize int64) *Chunk {
	return &Chunk{dir: dir, index: index, maxSize: maxSize, logger: logging.NewLogger(fmt.Sprintf("chunkfs.Chunk.%d", index))}
}

// Index returns the chunk's index.
func (c *Chunk) Index() Index {
	return c.index
}

// String implements fmt.Stringer.
func (c *Chunk) String() string {
	return fmt.Sprintf("Chunk{index:%d, dir:%s, maxSize:%d}", c.index, c.dir, c.maxSize)
}

func (c *Chunk) path() string {
	return filepath.Join(c.dir, IndexToName(c.index))
}

// TryOpen opens the existing chunk at index. It fails with ErrNotExist if
// the file is absent, and with ErrExhausted if the file's current size is
// already at or beyond maxSize.
func TryOpen(dir string, index Index, maxSize int64) (*Chunk, error) {
	if err := validateMaxSize(maxSize); err != nil {
		return nil, err
	}
	c := newChunk(dir, index, maxSize)
	if err := c.validateSize(); err != nil {
		return nil, err
	}
	return c, nil
}

// Open opens the existing chunk at index without validating its size. It
// fails only if the file does not exist.
func Open(dir string, index Index, maxSize int64) (*Chunk, error) {
	c := newChunk(dir, index, maxSize)
	if err := c.checkExists(); err != nil {
		return nil, err
	}
	return c, nil
}

// TryCreate creates a new, empty chunk file at index. It fails on any I/O
// error, including the file already existing.
func TryCreate(dir string, index Index, maxSize int64) (*Chunk, error) {
	if err := validateMaxSize(maxSize); err != nil {
		return nil, err
	}
	c := newChunk(dir, index, maxSize)
	f, err := os.OpenFile(c.path(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("could not create chunk %s: %w", c.path(), err)
	}
	f.Close()
	c.logger.Debugf("created")
	return c, nil
}

// TryNew sweeps indices upward from 0 looking for the current tail: it
// opens the first chunk that both exists and is not yet at maxSize,
// skipping past ones that are full, and creates the chunk at the first
// index it finds missing.
func TryNew(dir string, maxSize int64) (*Chunk, error) {
	return TryNewFrom(dir, 0, maxSize)
}

// TryNewFrom is TryNew starting the sweep at a given index.
func TryNewFrom(dir string, start Index, maxSize int64) (*Chunk, error) {
	idx := start
	for {
		c, err := TryOpen(dir, idx, maxSize)
		if err == nil {
			return c, nil
		}
		switch {
		case errors.Is(err, errors.ErrNotExist):
			return TryCreate(dir, idx, maxSize)
		case errors.Is(err, errors.ErrExhausted):
			idx++
			continue
		default:
			return nil, err
		}
	}
}

// CreateExtended creates and returns a new chunk at index+1, carrying
// forward the same max size.
func (c *Chunk) CreateExtended() (*Chunk, error) {
	return TryCreate(c.dir, c.index+1, c.maxSize)
}

// Append validates the chunk's size, then writes data to the end of the
// file and returns the pre-write offset. The size check happens before the
// write, so a write that itself crosses maxSize is allowed through — the
// next append on this chunk will fail with ErrExhausted.
func (c *Chunk) Append(data []byte) (Offset, error) {
	if err := c.validateSize(); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(c.path(), os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return 0, fmt.Errorf("could not open chunk %s for append: %w", c.path(), err)
	}
	defer f.Close()

	pos, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("could not seek chunk %s: %w", c.path(), err)
	}
	if _, err := f.Write(data); err != nil {
		return 0, fmt.Errorf("could not append to chunk %s: %w", c.path(), err)
	}
	return Offset(pos), nil
}

// WriteAt overwrites data at offset. It does not check the chunk's size.
func (c *Chunk) WriteAt(data []byte, offset Offset) error {
	f, err := os.OpenFile(c.path(), os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("could not open chunk %s for write: %w", c.path(), err)
	}
	defer f.Close()

	if _, err := f.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("could not write chunk %s at offset %d: %w", c.path(), offset, err)
	}
	return nil
}

// Read reads exactly length bytes starting at offset. It fails on a short
// read.
func (c *Chunk) Read(offset Offset, length uint64) ([]byte, error) {
	f, err := os.OpenFile(c.path(), os.O_RDONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("could not open chunk %s for read: %w", c.path(), err)
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, int64(offset))
	if n != len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("short read from chunk %s at offset %d, wanted %d got %d: %w", c.path(), offset, length, n, err)
	}
	return buf, nil
}

// Erase zeroes the byte range [offset, offset+length).
func (c *Chunk) Erase(offset Offset, length uint64) error {
	return c.WriteAt(make([]byte, length), offset)
}

func (c *Chunk) checkExists() error {
	if _, err := os.Stat(c.path()); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("chunk %s does not exist: %w", c.path(), errors.ErrNotExist)
		}
		return fmt.Errorf("could not stat chunk %s: %w", c.path(), err)
	}
	return nil
}

// validateMaxSize rejects a zero max size at construction time: a
// ChunkTooLarge on the very first append into an empty chunk is otherwise
// unobservable and unspecified (see the open question this resolves).
func validateMaxSize(maxSize int64) error {
	if maxSize <= 0 {
		return fmt.Errorf("max chunk size must be positive, got %d: %w", maxSize, errors.ErrInvalid)
	}
	return nil
}

func (c *Chunk) validateSize() error {
	fi, err := os.Stat(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("chunk %s does not exist: %w", c.path(), errors.ErrNotExist)
		}
		return fmt.Errorf("could not stat chunk %s: %w", c.path(), err)
	}
	if fi.Size() >= c.maxSize {
		return fmt.Errorf("chunk %s size %d is at or beyond max size %d: %w", c.path(), fi.Size(), c.maxSize, errors.ErrExhausted)
	}
	return nil
}
