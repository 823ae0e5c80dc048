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

package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

const (
	SnapshotBlobKeyPrefix = "snap"
	LatestSnapshotBlobKey = "snap_latest"
)

func uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// SnapshotBlobKey returns the key of snapshot seq. Keys sort by sequence.
func SnapshotBlobKey(seq uint64) []byte {
	key := []byte(SnapshotBlobKeyPrefix)
	key = append(key, uint64ToBytes(seq)...)
	return key
}

// SnapshotSeqFromKey is the inverse of SnapshotBlobKey
func SnapshotSeqFromKey(key []byte) (uint64, error) {
	if len(key) != len(SnapshotBlobKeyPrefix)+8 ||
		string(key[:len(SnapshotBlobKeyPrefix)]) != SnapshotBlobKeyPrefix {
		return 0, fmt.Errorf("not a snapshot key: %x", key)
	}
	return binary.BigEndian.Uint64(key[len(SnapshotBlobKeyPrefix):]), nil
}

// LatestSnapshotValue encodes the pointer to the most recent snapshot
func LatestSnapshotValue(seq uint64) []byte {
	return []byte(strconv.FormatUint(seq, 10))
}

func ParseLatestSnapshotValue(val []byte) (uint64, error) {
	return strconv.ParseUint(string(val), 10, 64)
}
