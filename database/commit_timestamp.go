// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"fmt"
)

// CommitTimestampError reports that the two stores were last committed
// together at different times, so one of them missed a write
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"stores out of step: %s is behind (metadata %d, blob %d)",
		e.Lagging(),
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

// Lagging names the store with the older commit timestamp
func (e CommitTimestampError) Lagging() string {
	if e.MetadataTimestamp < e.BlobTimestamp {
		return "metadata"
	}
	return "blob"
}

// verifyCommitTimestamps compares the timestamps recorded by the last
// combined commit. A store that has never been committed to is not checked.
func (d *Database) verifyCommitTimestamps() error {
	meta, err := d.metadata.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read metadata commit timestamp: %w", err)
	}
	if meta <= 0 {
		return nil
	}
	blob, err := d.blob.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read blob commit timestamp: %w", err)
	}
	if blob == meta {
		return nil
	}
	return CommitTimestampError{MetadataTimestamp: meta, BlobTimestamp: blob}
}

// stampCommit records ts in both stores inside txn
func (d *Database) stampCommit(txn *Txn, ts int64) error {
	if err := d.metadata.SetCommitTimestamp(txn.Metadata(), ts); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := d.blob.SetCommitTimestamp(txn.Blob(), ts); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	return nil
}
