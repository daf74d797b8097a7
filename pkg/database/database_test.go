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
	"testing"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	cfg := Config{Dir: t.TempDir(), MaxChunkSize: 1 << 20}
	db := NewDatabase(cfg)
	require.NoError(t, db.Init(context.Background()))
	return db
}

func TestPut_ThenGet_RoundTrips(t *testing.T) {
	db := newTestDB(t)
	post := NewPost("1", RootHash, "hello world")

	require.NoError(t, db.Put(post))

	got, ok, err := db.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(got.Message.Bytes()))
	assert.Equal(t, RootHash, got.ReplyTo)
}

func TestPut_DuplicateHashFails(t *testing.T) {
	db := newTestDB(t)
	post := NewPost("1", RootHash, "hi")
	require.NoError(t, db.Put(post))

	err := db.Put(post)
	assert.True(t, errors.Is(err, errors.ErrExist))
}

func TestGet_MissingHashReturnsFalse(t *testing.T) {
	db := newTestDB(t)
	_, ok, err := db.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_DeletedReturnsStub(t *testing.T) {
	db := newTestDB(t)
	post := NewPost("1", RootHash, "hi")
	require.NoError(t, db.Put(post))
	require.NoError(t, db.Delete("1"))

	got, ok, err := db.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DeletedStubMessage, string(got.Message.Bytes()))
	assert.Equal(t, RootHash, got.ReplyTo)
}

func TestUpdate_RequiresPriorDelete(t *testing.T) {
	db := newTestDB(t)
	post := NewPost("1", RootHash, "hi")
	require.NoError(t, db.Put(post))

	err := db.Update(NewPost("1", RootHash, "bye"))
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestUpdate_MissingPostFails(t *testing.T) {
	db := newTestDB(t)
	err := db.Update(NewPost("1", RootHash, "bye"))
	assert.True(t, errors.Is(err, errors.ErrNotExist))
}

func TestPut_DeleteThenUpdate_RoundTrips(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Put(NewPost("1", RootHash, "hi")))
	require.NoError(t, db.Delete("1"))
	require.NoError(t, db.Update(NewPost("1", RootHash, "bye")))

	got, ok, err := db.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bye", string(got.Message.Bytes()))
}

func TestReplies_ReclaimHoleAfterDelete(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Put(NewPost("1", RootHash, "a longer first message")))
	require.NoError(t, db.Delete("1"))
	require.NoError(t, db.Put(NewPost("2", RootHash, "short")))

	got, ok, err := db.Get("2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "short", string(got.Message.Bytes()))
}

func TestGet_CorruptedEntryEmbedsHash(t *testing.T) {
	db := newTestDB(t)
	// Simulate a live entry that never got its chunk location stamped
	// (e.g. a crash between refs.PutPost and refs.SetChunkSettings):
	// register the hash directly through refs, bypassing Put/upsert.
	require.NoError(t, db.refs.PutPost("1", RootHash, 5))

	_, ok, err := db.Get("1")
	assert.False(t, ok)
	require.True(t, errors.Is(err, errors.ErrDataLoss))

	var recoveredHash string
	require.True(t, errors.ExtractObject(err, &recoveredHash))
	assert.Equal(t, "1", recoveredHash)
}

func TestRestart_RediscoversKnownPosts(t *testing.T) {
	cfg := Config{Dir: t.TempDir(), MaxChunkSize: 1 << 20}
	db1 := NewDatabase(cfg)
	require.NoError(t, db1.Init(context.Background()))
	require.NoError(t, db1.Put(NewPost("1", RootHash, "hi")))

	db2 := NewDatabase(cfg)
	require.NoError(t, db2.Init(context.Background()))
	got, ok, err := db2.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi", string(got.Message.Bytes()))
}
