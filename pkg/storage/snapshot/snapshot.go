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
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/inkpost/inkpost/golibs/errors"
	"github.com/inkpost/inkpost/golibs/files"
	"github.com/inkpost/inkpost/golibs/logging"
	"github.com/natefinch/atomic"
)

// FileName is the conventional snapshot file name within a database
// directory.
const FileName = "index-3.json"

var logger = logging.NewLogger("snapshot")

// Load reads and parses the snapshot file at path. A missing file is not
// an error: it returns an empty record list, matching a brand new
// database that has never been snapshotted.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read snapshot %s: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot %s is malformed: %w", path, errors.ErrInvalid)
	}
	return doc.Indexes, nil
}

// Save validates the invariants a snapshot must hold (see Validate) and
// atomically replaces the snapshot file at path with records. A crash
// mid-write never leaves a half-written snapshot: the write lands in a
// temp file that is renamed into place only on success.
//
// This is the out-of-band "snapshot-and-compact job" the core storage
// engine does not perform itself; callers invoke it explicitly (e.g. on a
// schedule, or before a planned restart), never as a side effect of
// put/update/delete.
func Save(path string, records []Record) error {
	if err := Validate(records); err != nil {
		return err
	}
	data, err := json.Marshal(document{Indexes: records})
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("could not write snapshot %s: %w", path, err)
	}
	logger.Debugf("wrote snapshot %s with %d records", path, len(records))
	return nil
}

// Validate re-checks invariants 2 and 3 against a candidate record set
// before it is persisted: every record marked deleted with no chunk file
// and a nonzero length would misrepresent a reclaimed entry, and a record
// that is not deleted must not look like a free hole.
func Validate(records []Record) error {
	for _, r := range records {
		if !r.Deleted && r.ChunkFile == nil && r.Length > 0 {
			return fmt.Errorf("record %s is live but has no chunk file: %w", r.Hash, errors.ErrInvalid)
		}
		if r.ChunkFile == nil && r.Length > 0 && r.Deleted {
			return fmt.Errorf("record %s is reclaimed but has a nonzero length: %w", r.Hash, errors.ErrInvalid)
		}
	}
	return nil
}

// Backup zips the chunk directory before a compaction job overwrites any
// chunk file, so a failed compaction can be rolled back from destFile.
func Backup(chunkDir, destFile string) error {
	return files.ZipFolder(chunkDir, destFile, nil, false)
}

// VerifyBackup re-extracts destFile into a scratch directory and compares
// its content hash against chunkDir, so a caller can confirm a backup
// actually captured what Backup was asked to capture before trusting it
// for a rollback.
func VerifyBackup(chunkDir, destFile string) error {
	scratch, err := files.CreateRandomDir(os.TempDir(), "inkpost-backup-verify-")
	if err != nil {
		return fmt.Errorf("could not create scratch dir to verify %s: %w", destFile, err)
	}
	defer os.RemoveAll(scratch)

	if err := files.UnzipToFolder(destFile, scratch); err != nil {
		return fmt.Errorf("could not unzip %s for verification: %w", destFile, err)
	}

	wantHash, err := files.HashDir(chunkDir, nil, false)
	if err != nil {
		return fmt.Errorf("could not hash %s: %w", chunkDir, err)
	}
	gotHash, err := files.HashDir(scratch, nil, false)
	if err != nil {
		return fmt.Errorf("could not hash extracted backup %s: %w", destFile, err)
	}
	if wantHash == nil || gotHash == nil || wantHash.String() != gotHash.String() {
		return fmt.Errorf("backup %s does not match %s: %w", destFile, chunkDir, errors.ErrDataLoss)
	}
	logger.Debugf("verified backup %s against %s", destFile, chunkDir)
	return nil
}
