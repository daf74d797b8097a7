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

// Package snapshot implements the on-disk record schema shared by the
// index snapshot and the diff log, and the atomic snapshot codec itself.
package snapshot

// Record is one line of the snapshot or the diff log: the serialized form
// of a single reference-collection entry. Both files share this schema
// verbatim.
type Record struct {
	Hash       string  `json:"h"`
	ParentHash string  `json:"r"`
	Offset     uint64  `json:"o"`
	Length     uint64  `json:"l"`
	Deleted    bool    `json:"d"`
	ChunkFile  *string `json:"f"`
}

// document is the on-disk shape of the snapshot file: a single field
// wrapping the flat list of records.
type document struct {
	Indexes []Record `json:"indexes"`
}
