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

package keystore_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/tally/keystore"
)

func TestGenerateSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "owner.json")
	key, err := keystore.Generate("owner key")
	require.NoError(t, err)
	require.NoError(t, keystore.Save(path, key))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, keystore.KeyFileMode, fi.Mode().Perm())
	}

	loaded, err := keystore.Load(path)
	require.NoError(t, err)
	assert.Equal(t, key.Address, loaded.Address)
	assert.Equal(t, "owner key", loaded.Description)
	assert.Equal(t, crypto.FromECDSA(key.PrivateKey), crypto.FromECDSA(loaded.PrivateKey))
}

func TestSaveRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	key, err := keystore.Generate("")
	require.NoError(t, err)
	require.NoError(t, keystore.Save(path, key))
	require.ErrorIs(t, keystore.Save(path, key), keystore.ErrKeyFileExists)
}

func TestLoadInsecureMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "key.json")
	key, err := keystore.Generate("")
	require.NoError(t, err)
	require.NoError(t, keystore.Save(path, key))
	require.NoError(t, os.Chmod(path, 0o644))
	_, err = keystore.Load(path)
	require.ErrorIs(t, err, keystore.ErrInsecureFileMode)
}

func TestLoadRejectsDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix file mode checks")
	}
	dir := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.Mkdir(dir, 0o700))
	_, err := keystore.Load(dir)
	require.ErrorIs(t, err, keystore.ErrNotRegularFile)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), keystore.KeyFileMode))
		return path
	}
	other, err := keystore.Generate("")
	require.NoError(t, err)
	key, err := keystore.Generate("")
	require.NoError(t, err)
	keyHex := hexutil.Encode(crypto.FromECDSA(key.PrivateKey))

	tests := []struct {
		name string
		body string
		want error
	}{
		{"wrong type", `{"type":"VrfSigningKey_PraosVRF","keyHex":"` + keyHex + `"}`, keystore.ErrUnknownKeyType},
		{
			"address mismatch",
			`{"type":"Secp256k1SigningKey","address":"` + other.Address.Hex() + `","keyHex":"` + keyHex + `"}`,
			keystore.ErrAddressMismatch,
		},
		{"not json", `nope`, nil},
		{"bad key", `{"type":"Secp256k1SigningKey","keyHex":"0x00"}`, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := keystore.Load(write(tc.name+".json", tc.body))
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}

	loaded, err := keystore.Load(write("no-address.json", `{"type":"Secp256k1SigningKey","keyHex":"`+keyHex+`"}`))
	require.NoError(t, err)
	assert.Equal(t, key.Address, loaded.Address)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := keystore.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
