// Copyright 2023 The acquirecloud Authors
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
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// The package defines a small taxonomy of general-purpose sentinel errors.
// Callers compare against them with Is (or the standard errors.Is, since
// these are plain values) rather than type-asserting a bespoke error type
// per call site.
var (
	ErrNotExist      = errors.New("object does not exist")
	ErrExist         = errors.New("object already exists")
	ErrInvalid       = errors.New("invalid argument")
	ErrInternal      = errors.New("internal error")
	ErrClosed        = errors.New("object is closed")
	ErrExhausted     = errors.New("resource exhausted")
	ErrDataLoss      = errors.New("data loss")
	ErrConflict      = errors.New("conflict")
	ErrNotAuthorized = errors.New("not authorized")
	ErrCanceled      = errors.New("canceled")
	ErrCommunication = errors.New("communication error")
	ErrUnimplemented = errors.New("not implemented")
)

// sentinels is the set of errors EmbedObject is allowed to wrap.
var sentinels = map[error]bool{
	ErrNotExist:      true,
	ErrExist:         true,
	ErrInvalid:       true,
	ErrInternal:      true,
	ErrClosed:        true,
	ErrExhausted:     true,
	ErrDataLoss:      true,
	ErrConflict:      true,
	ErrNotAuthorized: true,
	ErrCanceled:      true,
	ErrCommunication: true,
	ErrUnimplemented: true,
}

// Is reports whether err, or any error it wraps, matches target. It is a
// thin alias of the standard errors.Is kept so callers in this codebase
// only ever import this package for error comparisons.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

const jsonErrorMarker = " eobj:"

// EmbedObject marshals obj as JSON and wraps it around target, so a caller
// further up the stack can recover obj with ExtractObject without a bespoke
// error type per call site. target must be one of this package's sentinel
// errors; obj must not be nil.
func EmbedObject(obj interface{}, target error) error {
	if obj == nil {
		panic("errors.EmbedObject: obj must not be nil")
	}
	if !sentinels[target] {
		panic("errors.EmbedObject: target must be one of this package's sentinel errors")
	}
	data, err := json.Marshal(obj)
	if err != nil {
		panic(fmt.Sprintf("errors.EmbedObject: object is not marshalable: %v", err))
	}
	return fmt.Errorf("%s%s%s: %w", jsonErrorMarker, data, jsonErrorMarker, target)
}

// ExtractObject recovers the payload embedded by EmbedObject into v, which
// must be a non-nil pointer. It returns false if err carries no embedded
// payload, or if the payload does not unmarshal into v.
func ExtractObject(err error, v interface{}) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	start := strings.Index(msg, jsonErrorMarker)
	if start < 0 {
		return false
	}
	rest := msg[start+len(jsonErrorMarker):]
	end := strings.Index(rest, jsonErrorMarker)
	if end < 0 {
		return false
	}
	data := rest[:end]
	if data == "" {
		return false
	}
	return json.Unmarshal([]byte(data), v) == nil
}
