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

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/keystore"
)

func TestKeygenAndSign(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "owner.skey")
	var out bytes.Buffer
	cmd := keygenCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--out", keyFile, "--description", "owner"})
	require.NoError(t, cmd.Execute())
	key, err := keystore.Load(keyFile)
	require.NoError(t, err)
	assert.Equal(t, key.Address.Hex(), strings.TrimSpace(out.String()))

	out.Reset()
	cmd = signCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--key", keyFile,
		"--method", "election.vote",
		"--election", "3",
		"--nonce", "7",
		"--params", `{"candidateId":1}`,
	})
	require.NoError(t, cmd.Execute())
	var sub auth.Submission
	require.NoError(t, json.Unmarshal(out.Bytes(), &sub))
	signer, err := auth.Recover(sub.Payload, sub.Signature)
	require.NoError(t, err)
	assert.Equal(t, key.Address, signer)
	var payload auth.Payload
	require.NoError(t, json.Unmarshal(sub.Payload, &payload))
	assert.Equal(t, "election.vote", payload.Method)
	assert.Equal(t, uint64(3), payload.Election)
	assert.Equal(t, uint64(7), payload.Nonce)
	assert.JSONEq(t, `{"candidateId":1}`, string(payload.Params))
}

func TestBuildSubmissionValidation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	keyFile := filepath.Join(t.TempDir(), "k.skey")
	key, err := keystore.Generate("")
	require.NoError(t, err)
	require.NoError(t, keystore.Save(keyFile, key))

	testCases := []struct {
		name  string
		flags signFlags
	}{
		{name: "missing key", flags: signFlags{method: "factory.pause", expires: time.Minute}},
		{name: "missing method", flags: signFlags{keyFile: keyFile, expires: time.Minute}},
		{name: "bad expiry", flags: signFlags{keyFile: keyFile, method: "factory.pause"}},
		{
			name:  "bad params",
			flags: signFlags{keyFile: keyFile, method: "factory.pause", params: "{", expires: time.Minute},
		},
		{
			name:  "missing key file",
			flags: signFlags{keyFile: keyFile + ".none", method: "factory.pause", expires: time.Minute},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildSubmission(tc.flags, now)
			require.Error(t, err)
		})
	}

	sub, err := buildSubmission(
		signFlags{keyFile: keyFile, method: "factory.pause", expires: time.Minute},
		now,
	)
	require.NoError(t, err)
	var payload auth.Payload
	require.NoError(t, json.Unmarshal(sub.Payload, &payload))
	assert.Equal(t, now.Add(time.Minute).Unix(), payload.Expires)
	assert.Empty(t, payload.Params)
}

func TestKeygenRequiresOut(t *testing.T) {
	cmd := keygenCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}
