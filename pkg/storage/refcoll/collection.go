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
package refcoll

import (
	"fmt"

	"github.com/inkpost/inkpost/golibs/container/iterable"
	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/logging"
	"github.com/inkpost/inkpost/pkg/storage/chunkfs"
	"github.com/inkpost/inkpost/pkg/storage/diff"
	"github.com/inkpost/inkpost/pkg/storage/snapshot"
)

type void struct{}

// Collection is the in-memory hash-indexed index of every post ever
// seen: the reply graph, insertion order, and the deleted/free sets a
// best-fit allocator draws from to reclaim reusable byte ranges.
type Collection struct {
	entries *iterable.Map[string, *Entry]
	deleted *iterable.Map[string, void]
	free    *iterable.Map[string, void]
	replies map[string][]string
	ordered []string
	diff    *diff.Log
	logger  logging.Logger
}

// New builds a Collection from persisted records and a diff log handle.
// records is the already-merged (snapshot-then-diff, diff-wins)
// observation sequence; callers assemble it via Load and d.Drain before
// calling New.
func New(records []snapshot.Record, d *diff.Log) (*Collection, error) {
	c := &Collection{
		entries: iterable.NewMap[string, *Entry](),
		deleted: iterable.NewMap[string, void](),
		free:    iterable.NewMap[string, void](),
		replies: make(map[string][]string),
		diff:    d,
		logger:  logging.NewLogger("refcoll.Collection"),
	}
	for _, r := range records {
		if err := c.applyRecord(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Merge folds snapshot records followed by diff records (diff replay
// order) into a single observation sequence, per the construction order
// invariant 6.
func Merge(snapshotRecords, diffRecords []snapshot.Record) []snapshot.Record {
	merged := make([]snapshot.Record, 0, len(snapshotRecords)+len(diffRecords))
	merged = append(merged, snapshotRecords...)
	merged = append(merged, diffRecords...)
	return merged
}

// applyRecord is upsert_ref, specialized to take a raw Record instead of
// an already-built Entry: a later record for the same hash simply
// replaces the earlier one, which is how diff-always-wins falls out of
// replaying in order.
func (c *Collection) applyRecord(r snapshot.Record) error {
	e, err := entryFromRecord(r)
	if err != nil {
		return err
	}
	return c.upsertRef(r.Hash, e)
}

func entryFromRecord(r snapshot.Record) (*Entry, error) {
	e := &Entry{Length: r.Length, Deleted: r.Deleted, ParentHash: r.ParentHash}
	if r.ChunkFile != nil {
		idx, err := chunkfs.NameToIndex(*r.ChunkFile)
		if err != nil {
			return nil, fmt.Errorf("snapshot record %s has invalid chunk file: %w", r.Hash, err)
		}
		e.ChunkSettings = &chunkfs.ChunkSettings{ChunkIndex: idx, Offset: r.Offset}
	}
	return e, nil
}

func recordFromEntry(hash string, e *Entry) snapshot.Record {
	r := snapshot.Record{Hash: hash, ParentHash: e.ParentHash, Length: e.Length, Deleted: e.Deleted}
	if e.ChunkSettings != nil {
		name := chunkfs.IndexToName(e.ChunkSettings.ChunkIndex)
		r.ChunkFile = &name
		r.Offset = e.ChunkSettings.Offset
	}
	return r
}

// upsertRef is §4.C upsert_ref: register a new hash in ordered/replies
// if unseen, replace the stored entry, then re-settle deleted/free
// membership against invariant 3.
func (c *Collection) upsertRef(hash string, e *Entry) error {
	if _, exists := c.entries.Get(hash); !exists {
		c.ordered = append(c.ordered, hash)
		c.replies[e.ParentHash] = append(c.replies[e.ParentHash], hash)
		if err := c.entries.Add(hash, e); err != nil {
			return fmt.Errorf("could not register entry %s: %w", hash, err)
		}
	} else {
		c.entries.Remove(hash)
		if err := c.entries.Add(hash, e); err != nil {
			return fmt.Errorf("could not replace entry %s: %w", hash, err)
		}
	}

	if e.Deleted {
		_ = c.deleted.Add(hash, void{})
	} else {
		c.deleted.Remove(hash)
	}
	if e.isFree() {
		_ = c.free.Add(hash, void{})
	} else {
		c.free.Remove(hash)
	}
	return nil
}

// PutPost is §4.C put_post: build a tentative entry for hash, reclaim a
// best-fit hole from free if one exists, register the entry, and append
// a diff record reflecting what was just decided.
func (c *Collection) PutPost(hash, parentHash string, length uint64) error {
	entry := &Entry{Length: length, Deleted: false, ParentHash: parentHash}

	if donorHash, ok := c.findFreeRef(length); ok {
		donor, _ := c.entries.Get(donorHash)
		entry.ChunkSettings = donor.ChunkSettings

		donor.ChunkSettings = nil
		donor.Length = 0
		c.free.Remove(donorHash)
		if err := c.diff.Append(recordFromEntry(donorHash, donor)); err != nil {
			return err
		}
		c.logger.Debugf("reclaimed hole from %s for %s (length=%d)", donorHash, hash, length)
	}

	if err := c.upsertRef(hash, entry); err != nil {
		return err
	}
	return c.diff.Append(recordFromEntry(hash, entry))
}

// findFreeRef is the best-fit search: among free entries whose length is
// at least needed, return the one minimizing leftover space. Iteration
// follows insertion order, which is the deterministic tie-break spec.md
// allows.
func (c *Collection) findFreeRef(needed uint64) (string, bool) {
	best := ""
	bestLeftover := uint64(0)
	found := false

	it := c.free.Iterator()
	defer it.Close()
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		hash := entry.Key
		e, exists := c.entries.Get(hash)
		if !exists || e.Length < needed {
			continue
		}
		leftover := e.Length - needed
		if !found || leftover < bestLeftover {
			best, bestLeftover, found = hash, leftover, true
		}
	}
	return best, found
}

// DeletePost is §4.C delete_post.
func (c *Collection) DeletePost(hash string) error {
	e, exists := c.entries.Get(hash)
	if !exists {
		return fmt.Errorf("post %s does not exist: %w", hash, errors.ErrNotExist)
	}
	if e.Deleted {
		return fmt.Errorf("post %s is already deleted: %w", hash, errors.ErrConflict)
	}
	e.Deleted = true
	c.deleted.Add(hash, void{})
	if e.isFree() {
		c.free.Add(hash, void{})
	}
	return c.diff.Append(recordFromEntry(hash, e))
}

// SetChunkSettings stamps settings onto an entry after the chunk
// processor has assigned its real location, then appends a diff record
// reflecting the now-complete entry. PutPost's own diff record (step 5)
// only captures a reclaimed location, if any; a fresh tail append has no
// location yet at that point, so without this second append a crash
// between insert and the next snapshot would replay the entry with its
// chunk_settings missing.
func (c *Collection) SetChunkSettings(hash string, settings chunkfs.ChunkSettings) error {
	e, ok := c.entries.Get(hash)
	if !ok {
		return nil
	}
	e.ChunkSettings = &settings
	return c.diff.Append(recordFromEntry(hash, e))
}

// Get is a plain lookup; no mutation.
func (c *Collection) Get(hash string) (*Entry, bool) {
	return c.entries.Get(hash)
}

// RefExists reports whether hash has ever been seen.
func (c *Collection) RefExists(hash string) bool {
	_, ok := c.entries.Get(hash)
	return ok
}

// RefDeleted reports whether hash exists and is marked deleted.
func (c *Collection) RefDeleted(hash string) bool {
	e, ok := c.entries.Get(hash)
	return ok && e.Deleted
}

// Snapshot returns the full set of records in observation order, for an
// out-of-band snapshot-and-compact job to persist.
func (c *Collection) Snapshot() []snapshot.Record {
	records := make([]snapshot.Record, 0, len(c.ordered))
	for _, hash := range c.ordered {
		if e, ok := c.entries.Get(hash); ok {
			records = append(records, recordFromEntry(hash, e))
		}
	}
	return records
}

// Len returns the number of distinct hashes ever observed.
func (c *Collection) Len() int {
	return c.entries.Len()
}
