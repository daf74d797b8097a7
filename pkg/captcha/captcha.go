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

// Package captcha implements the 189-byte captcha artifact: an
// embedded Ed25519 public key, an XOR-encrypted seed that only the
// correct answer can expand, and a 1-bit-per-pixel challenge image.
package captcha

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/hexutil"
)

const (
	// ArtifactSize is the total byte length of a captcha artifact.
	ArtifactSize = 189

	publicKeyOffset = 0
	publicKeySize   = 32
	seedOffset      = 32
	seedSize        = 32
	bitmapOffset    = 64
	bitmapSize      = 125

	// ImageWidth and ImageHeight describe the challenge bitmap's
	// 1-bit-per-pixel dimensions.
	ImageWidth  = 50
	ImageHeight = 20
)

// probeMessage is signed with the candidate private key during Solve;
// if the resulting signature verifies against the embedded public key,
// the seed was expanded correctly and the answer is accepted.
var probeMessage = []byte("inkpost-captcha-probe")

// Artifact is a parsed 189-byte captcha blob.
type Artifact struct {
	PublicKey     ed25519.PublicKey
	EncryptedSeed [seedSize]byte
	Bitmap        [bitmapSize]byte
}

// Parse validates and decomposes a raw captcha artifact.
func Parse(blob []byte) (Artifact, error) {
	if len(blob) != ArtifactSize {
		return Artifact{}, fmt.Errorf("captcha artifact must be %d bytes, got %d: %w", ArtifactSize, len(blob), errors.ErrInvalid)
	}
	var a Artifact
	a.PublicKey = append(ed25519.PublicKey(nil), blob[publicKeyOffset:publicKeyOffset+publicKeySize]...)
	copy(a.EncryptedSeed[:], blob[seedOffset:seedOffset+seedSize])
	copy(a.Bitmap[:], blob[bitmapOffset:bitmapOffset+bitmapSize])
	return a, nil
}

// expandSeed recovers the plaintext seed candidate for answer:
// seed_plain[i] = seed_cipher[i] XOR SHA512(answer || hex(pubkey))[i mod 64].
func (a Artifact) expandSeed(answer string) [seedSize]byte {
	keystream := sha512.Sum512(append([]byte(answer), []byte(hexutil.Encode(a.PublicKey))...))
	var plain [seedSize]byte
	for i := range plain {
		plain[i] = a.EncryptedSeed[i] ^ keystream[i%len(keystream)]
	}
	return plain
}

// Solve attempts to recover the artifact's private key from answer. It
// signs probeMessage with the candidate key and verifies the signature
// against the embedded public key; only the correct answer produces a
// key whose signature verifies.
func (a Artifact) Solve(answer string) (ed25519.PrivateKey, bool) {
	seed := a.expandSeed(answer)
	candidate := ed25519.NewKeyFromSeed(seed[:])
	sig := ed25519.Sign(candidate, probeMessage)
	if !ed25519.Verify(a.PublicKey, probeMessage, sig) {
		return nil, false
	}
	return candidate, true
}

// Sign solves the artifact with answer and, if correct, signs message
// (typically the bytes of a user's post), returning the signature as
// lowercase hex. ok is false if answer was wrong.
func (a Artifact) Sign(answer string, message []byte) (signature string, ok bool) {
	key, solved := a.Solve(answer)
	if !solved {
		return "", false
	}
	return hexutil.Encode(ed25519.Sign(key, message)), true
}

// Verify decodes a hex-encoded signature and checks it against message
// under pubkey.
func Verify(pubkey ed25519.PublicKey, message []byte, signatureHex string) (bool, error) {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", errors.ErrInvalid)
	}
	return ed25519.Verify(pubkey, message, sig), nil
}

// Bitmap decodes the artifact's challenge image into a width x height
// grid of booleans, traversed column-major (x outer, y inner), LSB-first
// within each byte, per the artifact's packed layout.
func (a Artifact) DecodeBitmap() [ImageWidth][ImageHeight]bool {
	bits := hexutil.BytesToBits(a.Bitmap[:])
	var grid [ImageWidth][ImageHeight]bool
	i := 0
	for x := 0; x < ImageWidth; x++ {
		for y := 0; y < ImageHeight; y++ {
			if i < len(bits) {
				grid[x][y] = bits[i]
			}
			i++
		}
	}
	return grid
}
