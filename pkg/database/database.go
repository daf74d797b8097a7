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
package database

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/files"
	"github.com/inkpost/inkpost/golibs/logging"
	"github.com/inkpost/inkpost/pkg/storage/chunkfs"
	"github.com/inkpost/inkpost/pkg/storage/diff"
	"github.com/inkpost/inkpost/pkg/storage/refcoll"
	"github.com/inkpost/inkpost/pkg/storage/snapshot"
)

// Database composes the reference collection and chunk processor into
// the public post store. Not safe for concurrent use: callers serialize
// access externally.
type Database struct {
	cfg       Config
	processor *chunkfs.Processor
	refs      *refcoll.Collection
	logger    logging.Logger
}

// NewDatabase constructs a Database with cfg but does not touch the
// filesystem yet; call Init to load state and open storage.
func NewDatabase(cfg Config) *Database {
	return &Database{cfg: cfg, logger: logging.NewLogger("database.Database")}
}

// Init implements linker.Initializer: it ensures the data directory
// exists, loads the snapshot, drains the diff log onto it (diff always
// wins), and opens the chunk processor at the discovered tail.
func (d *Database) Init(ctx context.Context) error {
	if err := files.EnsureDirExists(d.cfg.Dir); err != nil {
		return fmt.Errorf("could not ensure data directory %s exists: %w", d.cfg.Dir, err)
	}

	snapshotPath := filepath.Join(d.cfg.Dir, snapshot.FileName)
	snapshotRecords, err := snapshot.Load(snapshotPath)
	if err != nil {
		return err
	}

	diffLog := diff.Open(filepath.Join(d.cfg.Dir, diff.FileName))
	diffRecords, err := diffLog.Drain()
	if err != nil {
		return err
	}

	refs, err := refcoll.New(refcoll.Merge(snapshotRecords, diffRecords), diffLog)
	if err != nil {
		return err
	}
	d.refs = refs

	processor, err := chunkfs.NewProcessor(d.cfg.Dir, d.cfg.MaxChunkSize)
	if err != nil {
		return err
	}
	d.processor = processor

	d.logger.Infof("opened database at %s with %d known posts", d.cfg.Dir, refs.Len())
	return nil
}

// Shutdown implements linker.Shutdowner. No handles are held open
// between operations, so there is nothing to release.
func (d *Database) Shutdown() {}

// Put inserts a new post, failing with ErrExist if the hash is already
// known.
func (d *Database) Put(post Post) error {
	if d.refs.RefExists(post.Hash) {
		return fmt.Errorf("post %s already exists: %w", post.Hash, errors.ErrExist)
	}
	return d.upsert(post)
}

// Update replaces the stored message for a previously deleted post. A
// post must be deleted before it can be updated: the data model has no
// in-place mutation.
func (d *Database) Update(post Post) error {
	if !d.refs.RefExists(post.Hash) {
		return fmt.Errorf("post %s does not exist: %w", post.Hash, errors.ErrNotExist)
	}
	if !d.refs.RefDeleted(post.Hash) {
		return fmt.Errorf("post %s must be deleted before it can be updated: %w", post.Hash, errors.ErrConflict)
	}
	return d.upsert(post)
}

// upsert is the shared body of Put and Update: ask the reference
// collection to place the post, then either overwrite the reclaimed
// range or append to the tail, stamping the real location back onto the
// entry.
func (d *Database) upsert(post Post) error {
	messageBytes := post.Message.Bytes()
	if err := d.refs.PutPost(post.Hash, post.ReplyTo, uint64(len(messageBytes))); err != nil {
		return err
	}

	entry, ok := d.refs.Get(post.Hash)
	if !ok {
		return fmt.Errorf("post %s vanished immediately after being placed: %w", post.Hash, errors.ErrInternal)
	}

	if entry.ChunkSettings != nil {
		if err := d.processor.InsertIntoExisting(*entry.ChunkSettings, messageBytes); err != nil {
			return err
		}
		return nil
	}

	settings, err := d.processor.Insert(messageBytes)
	if err != nil {
		return err
	}
	return d.refs.SetChunkSettings(post.Hash, settings)
}

// Get returns the post for hash, a deleted-stub post if it was deleted,
// or (Post{}, false) if the hash was never seen.
func (d *Database) Get(hash string) (Post, bool, error) {
	entry, ok := d.refs.Get(hash)
	if !ok {
		return Post{}, false, nil
	}
	if entry.Deleted {
		return Post{Hash: hash, ReplyTo: entry.ParentHash, Message: NewPostMessage(DeletedStubMessage)}, true, nil
	}
	if entry.ChunkSettings == nil {
		return Post{}, false, errors.EmbedObject(hash, errors.ErrDataLoss)
	}
	raw, err := d.processor.Read(*entry.ChunkSettings, entry.Length)
	if err != nil {
		return Post{}, false, err
	}
	return Post{Hash: hash, ReplyTo: entry.ParentHash, Message: PostMessageFromBytes(raw)}, true, nil
}

// Delete marks hash as deleted, leaving its chunk bytes in place for a
// future put to reclaim.
func (d *Database) Delete(hash string) error {
	return d.refs.DeletePost(hash)
}
