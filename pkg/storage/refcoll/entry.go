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

// Package refcoll implements the in-memory reference collection: the
// hash-indexed view of every post ever seen, its reply graph, and the
// best-fit allocator that reclaims the byte ranges left behind by
// deleted posts.
package refcoll

import "github.com/inkpost/inkpost/pkg/storage/chunkfs"

// Entry is the in-memory record for one post hash.
type Entry struct {
	// ChunkSettings locates the stored bytes. Nil iff the entry is
	// deleted and its range has been reclaimed by another post.
	ChunkSettings *chunkfs.ChunkSettings
	// Length is the byte length of the stored payload. Zero iff
	// ChunkSettings is nil.
	Length uint64
	Deleted bool
	// ParentHash is the hash of the reply parent.
	ParentHash string
}

// isFree reports whether the entry is a reclamation candidate: deleted,
// still holding a nonzero-length chunk range.
func (e *Entry) isFree() bool {
	return e.Deleted && e.ChunkSettings != nil && e.Length > 0
}

