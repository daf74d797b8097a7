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
package readcache

import (
	"testing"

	"github.com/inkpost/inkpost/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	posts   map[string]database.Post
	getHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: make(map[string]database.Post)}
}

func (f *fakeStore) Put(post database.Post) error {
	f.posts[post.Hash] = post
	return nil
}

func (f *fakeStore) Update(post database.Post) error {
	f.posts[post.Hash] = post
	return nil
}

func (f *fakeStore) Get(hash string) (database.Post, bool, error) {
	f.getHits++
	post, ok := f.posts[hash]
	return post, ok, nil
}

func (f *fakeStore) Delete(hash string) error {
	delete(f.posts, hash)
	return nil
}

func TestGet_CachesUnderlyingLookup(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Put(database.NewPost("1", database.RootHash, "hi")))
	cache := NewCachedStore(store, 10)

	_, ok, err := cache.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = cache.Get("1")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 1, store.getHits)
}

func TestDelete_InvalidatesCachedEntry(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Put(database.NewPost("1", database.RootHash, "hi")))
	cache := NewCachedStore(store, 10)

	_, _, err := cache.Get("1")
	require.NoError(t, err)

	require.NoError(t, cache.Delete("1"))

	_, ok, err := cache.Get("1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, store.getHits)
}

func TestPut_InvalidatesStaleMiss(t *testing.T) {
	store := newFakeStore()
	cache := NewCachedStore(store, 10)

	_, ok, err := cache.Get("1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put(database.NewPost("1", database.RootHash, "hi")))

	_, ok, err = cache.Get("1")
	require.NoError(t, err)
	assert.True(t, ok)
}
