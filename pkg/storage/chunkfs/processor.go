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
package chunkfs

import (
	"context"
	"fmt"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/files"
	"github.com/inkpost/inkpost/golibs/logging"
)

type (
	// ChunkSettings locates a post's stored bytes: the chunk that holds
	// them and the byte offset within it.
	ChunkSettings struct {
		ChunkIndex Index
		Offset     Offset
	}

	// Processor abstracts a logical infinite append sequence over a
	// rolling sequence of bounded Chunks. It holds the current tail
	// chunk's metadata; any other chunk is opened on demand.
	Processor struct {
		dir     string
		maxSize int64
		last    *Chunk
		logger  logging.Logger
	}
)

// NewProcessor creates a Processor rooted at dir, discovering (or
// creating) the current tail chunk by sweeping from index 0.
func NewProcessor(dir string, maxSize int64) (*Processor, error) {
	if err := files.EnsureDirExists(dir); err != nil {
		return nil, fmt.Errorf("could not ensure chunk directory %s exists: %w", dir, err)
	}
	last, err := TryNew(dir, maxSize)
	if err != nil {
		return nil, err
	}
	return &Processor{dir: dir, maxSize: maxSize, last: last, logger: logging.NewLogger("chunkfs.Processor")}, nil
}

// Init implements linker.Initializer. The tail chunk is already
// established at construction time, so Init only re-confirms the
// directory exists.
func (p *Processor) Init(_ context.Context) error {
	return files.EnsureDirExists(p.dir)
}

// Shutdown implements linker.Shutdowner. No handle is kept open between
// operations, so there is nothing to release.
func (p *Processor) Shutdown() {}

// LastIndex returns the current tail chunk's index.
func (p *Processor) LastIndex() Index {
	return p.last.Index()
}

// Insert appends messageBytes to the tail chunk, rolling over to a new
// chunk and retrying once if the tail is full.
func (p *Processor) Insert(messageBytes []byte) (ChunkSettings, error) {
	offset, err := p.last.Append(messageBytes)
	if err != nil {
		if errors.Is(err, errors.ErrExhausted) {
			next, extendErr := p.last.CreateExtended()
			if extendErr != nil {
				return ChunkSettings{}, extendErr
			}
			p.logger.Debugf("rolling over from chunk %d to %d", p.last.Index(), next.Index())
			p.last = next
			return p.Insert(messageBytes)
		}
		return ChunkSettings{}, err
	}
	return ChunkSettings{ChunkIndex: p.last.Index(), Offset: offset}, nil
}

// InsertIntoExisting overwrites messageBytes at a previously reserved
// location. The caller is responsible for ensuring messageBytes does not
// exceed the originally reserved range.
func (p *Processor) InsertIntoExisting(settings ChunkSettings, messageBytes []byte) error {
	c, err := p.openFor(settings.ChunkIndex)
	if err != nil {
		return err
	}
	return c.WriteAt(messageBytes, settings.Offset)
}

// Read reads exactly length bytes from the location described by settings.
func (p *Processor) Read(settings ChunkSettings, length uint64) ([]byte, error) {
	c, err := p.openFor(settings.ChunkIndex)
	if err != nil {
		return nil, err
	}
	return c.Read(settings.Offset, length)
}

// Erase zeroes the range described by settings.
func (p *Processor) Erase(settings ChunkSettings, length uint64) error {
	c, err := p.openFor(settings.ChunkIndex)
	if err != nil {
		return err
	}
	return c.Erase(settings.Offset, length)
}

// openFor returns the tail chunk if it already matches index, else opens
// index without a size check (the caller already knows the range it wants
// fits, since it was reserved by a prior Insert).
func (p *Processor) openFor(index Index) (*Chunk, error) {
	if p.last.Index() == index {
		return p.last, nil
	}
	return Open(p.dir, index, p.maxSize)
}
