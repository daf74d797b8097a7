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

// Package stego implements least-significant-bit PNG steganography: a
// length-prefixed payload hidden one bit per color component, in image
// pixel order.
package stego

import (
	"fmt"
	"image"
	"image/color"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/hexutil"
)

const (
	colorsPerPixel = 3
	lengthBits     = 32
)

// Encode returns a copy of img with payload hidden in its low-order
// color bits, prefixed by a 4-byte little-endian length. It fails if
// payload (plus its length prefix) does not fit in img's pixel budget.
func Encode(img image.Image, payload []byte) (*image.RGBA, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	maxBits := width * height * colorsPerPixel
	dataBits := (len(payload) + 4) * 8
	if maxBits < dataBits {
		return nil, fmt.Errorf("payload of %d bytes does not fit in a %dx%d image: %w", len(payload), width, height, errors.ErrInvalid)
	}

	combined := append(hexutil.Int32ToBytes(int32(len(payload))), payload...)
	bits := hexutil.BytesToBits(combined)

	out := image.NewRGBA(bounds)
	bitIdx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			components := [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
			for i := range components {
				if bitIdx < len(bits) {
					components[i] = setBit(components[i], bits[bitIdx])
					bitIdx++
				}
			}
			out.Set(x, y, color.RGBA{R: components[0], G: components[1], B: components[2], A: uint8(a >> 8)})
		}
	}
	return out, nil
}

// Decode recovers the payload hidden in img by Encode.
func Decode(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	maxBits := width * height * colorsPerPixel
	if maxBits < lengthBits {
		return nil, fmt.Errorf("image too small to hold a length prefix: %w", errors.ErrInvalid)
	}

	var allBits []bool
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			allBits = append(allBits, bitOf(uint8(r>>8)), bitOf(uint8(g>>8)), bitOf(uint8(b>>8)))
		}
	}

	lengthBytes, err := hexutil.BitsToBytes(allBits[:lengthBits])
	if err != nil {
		return nil, err
	}
	length, err := hexutil.BytesToInt32(lengthBytes)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("decoded negative payload length %d: %w", length, errors.ErrInvalid)
	}

	need := lengthBits + int(length)*8
	if need > len(allBits) {
		return nil, fmt.Errorf("image does not hold %d declared payload bytes: %w", length, errors.ErrDataLoss)
	}
	return hexutil.BitsToBytes(allBits[lengthBits:need])
}

func setBit(component uint8, bit bool) uint8 {
	even := component - component%2
	if bit {
		return even + 1
	}
	return even
}

func bitOf(component uint8) bool {
	return component%2 == 1
}
