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

package types_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/tally/database/types"
)

func TestSnapshotBlobKeyRoundTrip(t *testing.T) {
	for _, seq := range []uint64{0, 1, 255, 1 << 40} {
		key := types.SnapshotBlobKey(seq)
		got, err := types.SnapshotSeqFromKey(key)
		require.NoError(t, err)
		assert.Equal(t, seq, got)
	}
}

func TestSnapshotBlobKeysSortBySequence(t *testing.T) {
	a := types.SnapshotBlobKey(9)
	b := types.SnapshotBlobKey(10)
	c := types.SnapshotBlobKey(256)
	assert.Negative(t, bytes.Compare(a, b))
	assert.Negative(t, bytes.Compare(b, c))
}

func TestSnapshotSeqFromKeyRejectsOtherKeys(t *testing.T) {
	_, err := types.SnapshotSeqFromKey([]byte(types.LatestSnapshotBlobKey))
	require.Error(t, err)
	_, err = types.SnapshotSeqFromKey([]byte("snap"))
	require.Error(t, err)
}

func TestLatestSnapshotValue(t *testing.T) {
	seq, err := types.ParseLatestSnapshotValue(types.LatestSnapshotValue(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)
	_, err = types.ParseLatestSnapshotValue([]byte("x"))
	require.Error(t, err)
}
