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

package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/internal/test/testutil"
	"github.com/blinklabs-io/tally/reject"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newVerifier(clock *testutil.FakeClock) *auth.Verifier {
	return auth.NewVerifier(auth.VerifierConfig{Now: clock.Now, MaxTTL: 10 * time.Minute})
}

func payload(nonce uint64) auth.Payload {
	return auth.Payload{
		Method:   "election.vote",
		Election: 3,
		Params:   json.RawMessage(`{"candidateId":2}`),
		Nonce:    nonce,
		Expires:  baseTime.Add(5 * time.Minute).Unix(),
	}
}

func TestSignAndVerify(t *testing.T) {
	clock := testutil.NewFakeClock(baseTime)
	v := newVerifier(clock)
	key, addr := testutil.NewKey(t)
	sub, err := auth.Sign(key, payload(1))
	require.NoError(t, err)
	require.Len(t, sub.Signature, 65)

	op, err := v.Verify(sub)
	require.NoError(t, err)
	assert.Equal(t, addr, op.Caller)
	assert.Equal(t, "election.vote", op.Method)
	assert.Equal(t, uint64(3), op.Election)
	assert.JSONEq(t, `{"candidateId":2}`, string(op.Params))
	n, ok := v.Nonce(addr)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), n)
}

func TestRecoveryIDOffset(t *testing.T) {
	key, addr := testutil.NewKey(t)
	sub, err := auth.Sign(key, payload(1))
	require.NoError(t, err)
	sig := append([]byte(nil), sub.Signature...)
	sig[64] += 27
	got, err := auth.Recover(sub.Payload, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	sig[64] = 5
	_, err = auth.Recover(sub.Payload, sig)
	require.ErrorIs(t, err, auth.ErrBadRecoveryID)
	_, err = auth.Recover(sub.Payload, sig[:64])
	require.ErrorIs(t, err, auth.ErrBadSignatureLength)
}

func TestTamperedPayloadRecoversOtherSigner(t *testing.T) {
	clock := testutil.NewFakeClock(baseTime)
	v := newVerifier(clock)
	key, addr := testutil.NewKey(t)
	sub, err := auth.Sign(key, payload(1))
	require.NoError(t, err)
	other := payload(1)
	other.Params = json.RawMessage(`{"candidateId":1}`)
	data, err := json.Marshal(other)
	require.NoError(t, err)
	sub.Payload = data
	op, err := v.Verify(sub)
	if err == nil {
		assert.NotEqual(t, addr, op.Caller)
	} else {
		assert.ErrorIs(t, err, reject.ErrValidation)
	}
}

func TestNonceReplay(t *testing.T) {
	clock := testutil.NewFakeClock(baseTime)
	v := newVerifier(clock)
	key, _ := testutil.NewKey(t)
	first, err := auth.Sign(key, payload(5))
	require.NoError(t, err)
	_, err = v.Verify(first)
	require.NoError(t, err)

	_, err = v.Verify(first)
	require.ErrorIs(t, err, auth.ErrNonceReused)
	assert.ErrorIs(t, err, reject.ErrDuplicate)

	lower, err := auth.Sign(key, payload(4))
	require.NoError(t, err)
	_, err = v.Verify(lower)
	require.ErrorIs(t, err, auth.ErrNonceReused)

	higher, err := auth.Sign(key, payload(9))
	require.NoError(t, err)
	_, err = v.Verify(higher)
	require.NoError(t, err)

	// Nonces are tracked per caller
	otherKey, _ := testutil.NewKey(t)
	fromOther, err := auth.Sign(otherKey, payload(1))
	require.NoError(t, err)
	_, err = v.Verify(fromOther)
	require.NoError(t, err)
}

func TestExpiry(t *testing.T) {
	clock := testutil.NewFakeClock(baseTime)
	v := newVerifier(clock)
	key, addr := testutil.NewKey(t)
	sub, err := auth.Sign(key, payload(1))
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	_, err = v.Verify(sub)
	require.ErrorIs(t, err, auth.ErrExpired)
	assert.ErrorIs(t, err, reject.ErrValidation)
	_, ok := v.Nonce(addr)
	assert.False(t, ok, "a rejected submission must not consume its nonce")

	far := payload(2)
	far.Expires = clock.Now().Add(time.Hour).Unix()
	sub, err = auth.Sign(key, far)
	require.NoError(t, err)
	_, err = v.Verify(sub)
	require.ErrorIs(t, err, auth.ErrExpiryTooFar)
}

func TestMalformedSubmissions(t *testing.T) {
	clock := testutil.NewFakeClock(baseTime)
	v := newVerifier(clock)
	key, _ := testutil.NewKey(t)

	_, err := v.Verify(auth.Submission{Payload: []byte("not json"), Signature: make([]byte, 65)})
	require.ErrorIs(t, err, auth.ErrMalformedPayload)

	noMethod := payload(1)
	noMethod.Method = ""
	sub, err := auth.Sign(key, noMethod)
	require.NoError(t, err)
	_, err = v.Verify(sub)
	require.ErrorIs(t, err, auth.ErrMissingMethod)
}

func TestSubmissionJSON(t *testing.T) {
	key, _ := testutil.NewKey(t)
	sub, err := auth.Sign(key, payload(1))
	require.NoError(t, err)
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	var decoded auth.Submission
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, sub, decoded)
	assert.Contains(t, string(data), `"signature":"0x`)
}

func TestSnapshotRestore(t *testing.T) {
	clock := testutil.NewFakeClock(baseTime)
	v := newVerifier(clock)
	key, addr := testutil.NewKey(t)
	sub, err := auth.Sign(key, payload(7))
	require.NoError(t, err)
	_, err = v.Verify(sub)
	require.NoError(t, err)

	restored := newVerifier(clock)
	require.NoError(t, restored.Restore(v.Snapshot()))
	n, ok := restored.Nonce(addr)
	require.True(t, ok)
	assert.Equal(t, uint64(7), n)
	_, err = restored.Verify(sub)
	require.ErrorIs(t, err, auth.ErrNonceReused)

	snap := v.Snapshot()
	snap.Nonces = append(snap.Nonces, snap.Nonces[0])
	require.Error(t, restored.Restore(snap))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	clock := testutil.NewFakeClock(baseTime)
	v := auth.NewVerifier(auth.VerifierConfig{Now: clock.Now, PromRegistry: reg})
	key, _ := testutil.NewKey(t)
	sub, err := auth.Sign(key, payload(1))
	require.NoError(t, err)
	_, err = v.Verify(sub)
	require.NoError(t, err)
	_, err = v.Verify(sub)
	require.Error(t, err)
	count, err := promtest.GatherAndCount(reg, "tally_auth_verifications_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
