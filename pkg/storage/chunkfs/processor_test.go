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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_InsertRollsOverWhenChunkIsFull(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProcessor(dir, 1)
	require.NoError(t, err)

	s1, err := p.Insert([]byte("test data"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, s1.ChunkIndex)
	assert.EqualValues(t, 0, s1.Offset)

	s2, err := p.Insert([]byte("other data"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, s2.ChunkIndex)
	assert.EqualValues(t, 0, s2.Offset)
}

func TestProcessor_InsertReturnsOffsetWithinTail(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProcessor(dir, 9999)
	require.NoError(t, err)

	_, err = p.Insert([]byte("test"))
	require.NoError(t, err)
	s, err := p.Insert([]byte("more"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, s.ChunkIndex)
	assert.EqualValues(t, 4, s.Offset)
}

func TestProcessor_ReadFromTailAndOlderChunk(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProcessor(dir, 1)
	require.NoError(t, err)

	s1, err := p.Insert([]byte("test data"))
	require.NoError(t, err)
	s2, err := p.Insert([]byte("other data"))
	require.NoError(t, err)

	b1, err := p.Read(s1, uint64(len("test data")))
	require.NoError(t, err)
	assert.Equal(t, "test data", string(b1))

	b2, err := p.Read(s2, uint64(len("other data")))
	require.NoError(t, err)
	assert.Equal(t, "other data", string(b2))
}

func TestProcessor_InsertIntoExistingOverwrites(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProcessor(dir, 9999)
	require.NoError(t, err)

	s, err := p.Insert([]byte("aaaa"))
	require.NoError(t, err)

	require.NoError(t, p.InsertIntoExisting(s, []byte("bbbb")))

	b, err := p.Read(s, 4)
	require.NoError(t, err)
	assert.Equal(t, "bbbb", string(b))
}

func TestProcessor_EraseZeroesRange(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProcessor(dir, 9999)
	require.NoError(t, err)

	s, err := p.Insert([]byte("secret"))
	require.NoError(t, err)

	require.NoError(t, p.Erase(s, 6))

	b, err := p.Read(s, 6)
	require.NoError(t, err)
	assert.Equal(t, "\x00\x00\x00\x00\x00\x00", string(b))
}

func TestProcessor_RediscoversTailOnRestart(t *testing.T) {
	dir := t.TempDir()
	p1, err := NewProcessor(dir, 1)
	require.NoError(t, err)
	_, err = p1.Insert([]byte("x"))
	require.NoError(t, err)
	_, err = p1.Insert([]byte("y"))
	require.NoError(t, err)
	require.EqualValues(t, 1, p1.LastIndex())

	p2, err := NewProcessor(dir, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p2.LastIndex())
}
