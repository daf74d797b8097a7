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

// Package diff implements the durable append-only log of index mutations
// recorded since the last snapshot. The log is replayed on top of the
// snapshot at startup and discarded once folded in.
package diff

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/logging"
	"github.com/inkpost/inkpost/pkg/storage/snapshot"
)

// FileName is the conventional diff log file name within a database
// directory.
const FileName = "diff-3.list"

// Log is the durable append-only record of index mutations made since the
// last snapshot. It holds no persistent file handle: every Append reopens
// the file, matching the rest of the storage layer's resource model.
type Log struct {
	path   string
	logger logging.Logger
}

// Open returns a Log rooted at path. The file need not exist yet; it is
// created lazily by the first Append.
func Open(path string) *Log {
	return &Log{path: path, logger: logging.NewLogger("diff.Log")}
}

// Append records r as the newest mutation. Each record is serialized as
// one line of JSON.
func (l *Log) Append(r snapshot.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("could not marshal diff record: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("could not open diff log %s: %w", l.path, err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("could not append to diff log %s: %w", l.path, err)
	}
	return nil
}

// Drain reads every record recorded so far, in order, then deletes the
// log file. A missing file yields an empty, non-error result: it means
// no mutations happened since the last snapshot.
//
// A malformed line is treated as fatal data loss rather than skipped: a
// corrupted diff log means the index state it describes can no longer be
// trusted to replay correctly.
func (l *Log) Drain() ([]snapshot.Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not open diff log %s: %w", l.path, err)
	}
	var records []snapshot.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r snapshot.Record
		if err := json.Unmarshal(line, &r); err != nil {
			f.Close()
			return nil, fmt.Errorf("diff log %s is corrupted: %w", l.path, errors.ErrDataLoss)
		}
		records = append(records, r)
	}
	scanErr := scanner.Err()
	f.Close()
	if scanErr != nil {
		return nil, fmt.Errorf("could not read diff log %s: %w", l.path, scanErr)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not remove diff log %s: %w", l.path, err)
	}
	l.logger.Debugf("drained %d records from %s", len(records), l.path)
	return records, nil
}
