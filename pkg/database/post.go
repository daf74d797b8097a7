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

// Package database composes the reference collection and chunk processor
// into the public post store: put, update, get, delete.
package database

import (
	"encoding/base64"
	"fmt"

	"github.com/inkpost/inkpost/golibs/errors"
)

// DeletedStubMessage is the placeholder message Get returns for a
// deleted post.
const DeletedStubMessage = "[deleted]"

// RootHash is the well-known reply_to sentinel used by posts with no
// parent.
const RootHash = "0"

// PostMessage is a post's text, held base64-encoded as it would appear
// on the wire.
type PostMessage struct {
	encoded string
}

// NewPostMessage base64-encodes raw.
func NewPostMessage(raw string) PostMessage {
	return PostMessage{encoded: base64.StdEncoding.EncodeToString([]byte(raw))}
}

// PostMessageFromEncoded wraps an already base64-encoded string, failing
// if it is not valid base64.
func PostMessageFromEncoded(encoded string) (PostMessage, error) {
	if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
		return PostMessage{}, fmt.Errorf("post message is not valid base64: %w", errors.ErrInvalid)
	}
	return PostMessage{encoded: encoded}, nil
}

// PostMessageFromBytes base64-encodes the raw payload bytes produced by
// the chunk processor.
func PostMessageFromBytes(raw []byte) PostMessage {
	return PostMessage{encoded: base64.StdEncoding.EncodeToString(raw)}
}

// Encoded returns the base64 text as it would appear on the wire.
func (m PostMessage) Encoded() string { return m.encoded }

// Bytes decodes the stored base64 text. Callers construct a PostMessage
// only through the constructors above, so the decode never fails.
func (m PostMessage) Bytes() []byte {
	b, _ := base64.StdEncoding.DecodeString(m.encoded)
	return b
}

// Len returns the decoded payload length, the size put_post charges
// against chunk storage.
func (m PostMessage) Len() uint64 { return uint64(len(m.Bytes())) }

// Post is the public value type: an opaque hash, a reply parent, and a
// base64-carried message. Immutable after construction.
type Post struct {
	Hash    string
	ReplyTo string
	Message PostMessage
}

// NewPost constructs a Post from raw (unencoded) message text.
func NewPost(hash, replyTo, rawMessage string) Post {
	return Post{Hash: hash, ReplyTo: replyTo, Message: NewPostMessage(rawMessage)}
}
