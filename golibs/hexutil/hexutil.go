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

// Package hexutil implements the lowercase hex codec and the
// byte/bit-stream helpers the captcha and steganography collaborators
// share.
package hexutil

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/inkpost/inkpost/golibs/errors"
)

// Encode renders data as a lowercase hex string.
func Encode(data []byte) string {
	return hex.EncodeToString(data)
}

// Decode parses a hex string back into bytes.
func Decode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not valid hex: %w", s, errors.ErrInvalid)
	}
	return b, nil
}

// Int32ToBytes renders v as 4 little-endian bytes, the length-prefix
// encoding the steganography codec uses.
func Int32ToBytes(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

// BytesToInt32 parses a 4-byte little-endian length prefix.
func BytesToInt32(b []byte) (int32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("expected 4 length-prefix bytes, got %d: %w", len(b), errors.ErrInvalid)
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// BytesToBits expands bytes into a LSB-first bit stream: bit 0 of
// bits[0] is the least significant bit of b[0].
func BytesToBits(b []byte) []bool {
	bits := make([]bool, 0, len(b)*8)
	for _, by := range b {
		for i := 0; i < 8; i++ {
			bits = append(bits, (by>>uint(i))&1 == 1)
		}
	}
	return bits
}

// BitsToBytes packs a LSB-first bit stream back into bytes. len(bits)
// must be a multiple of 8.
func BitsToBytes(bits []bool) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, fmt.Errorf("bit stream length %d is not a multiple of 8: %w", len(bits), errors.ErrInvalid)
	}
	out := make([]byte, len(bits)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out, nil
}
