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

// Package readcache wraps a post store with a bounded LRU read-through
// cache, invalidated on every write that could change what Get returns.
package readcache

import (
	"context"

	"github.com/inkpost/inkpost/golibs/container/lru"
	"github.com/inkpost/inkpost/pkg/database"
	"github.com/logrange/linker"
)

// Store is the subset of database.Database that CachedStore wraps.
type Store interface {
	Put(post database.Post) error
	Update(post database.Post) error
	Get(hash string) (database.Post, bool, error)
	Delete(hash string) error
}

const defaultCacheSize = 10000

type entry struct {
	post database.Post
	ok   bool
}

// CachedStore wraps Store with an LRU cache of recently read posts.
// Mutations that could invalidate a cached result evict it before
// returning.
type CachedStore struct {
	store Store
	cache *lru.Cache[string, entry]
}

// NewCachedStore wraps store with an LRU cache sized for cacheSize
// entries. A cacheSize of 0 selects defaultCacheSize.
func NewCachedStore(store Store, cacheSize int) *CachedStore {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	c := &CachedStore{store: store}
	c.cache, _ = lru.NewCache(cacheSize, func(hash string) (entry, error) {
		post, ok, err := store.Get(hash)
		if err != nil {
			return entry{}, err
		}
		return entry{post: post, ok: ok}, nil
	}, nil)
	return c
}

// Init implements linker.Initializer, delegating to the wrapped store
// if it participates in the lifecycle.
func (c *CachedStore) Init(ctx context.Context) error {
	if init, ok := c.store.(linker.Initializer); ok {
		return init.Init(ctx)
	}
	return nil
}

// Shutdown implements linker.Shutdowner.
func (c *CachedStore) Shutdown() {
	if shut, ok := c.store.(linker.Shutdowner); ok {
		shut.Shutdown()
	}
}

// Get returns the cached result for hash, populating the cache on a
// miss.
func (c *CachedStore) Get(hash string) (database.Post, bool, error) {
	e, err := c.cache.GetOrCreate(hash)
	if err != nil {
		return database.Post{}, false, err
	}
	return e.post, e.ok, nil
}

// Put stores post, invalidating any stale cached miss for its hash.
func (c *CachedStore) Put(post database.Post) error {
	if err := c.store.Put(post); err != nil {
		return err
	}
	c.cache.Remove(post.Hash)
	return nil
}

// Update replaces the stored message for post.Hash, invalidating its
// cached entry.
func (c *CachedStore) Update(post database.Post) error {
	if err := c.store.Update(post); err != nil {
		return err
	}
	c.cache.Remove(post.Hash)
	return nil
}

// Delete removes hash, invalidating its cached entry so the next Get
// observes the deleted stub.
func (c *CachedStore) Delete(hash string) error {
	if err := c.store.Delete(hash); err != nil {
		return err
	}
	c.cache.Remove(hash)
	return nil
}
