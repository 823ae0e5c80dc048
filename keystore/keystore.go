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

// Package keystore reads and writes the secp256k1 signing key files used to
// sign operation submissions.
//
// A key file is a small JSON document holding the hex private key and the
// derived address. Key files must not be readable by group or other.
package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyFileType identifies tally signing key files
const KeyFileType = "Secp256k1SigningKey"

// KeyFileMode is the permission mode new key files are written with
const KeyFileMode os.FileMode = 0o600

// Valid key files are well under this size
const maxKeyFileSize = 1 << 16

var (
	ErrInsecureFileMode = errors.New("insecure key file permissions")
	ErrUnknownKeyType   = errors.New("unknown key file type")
	ErrAddressMismatch  = errors.New("key file address does not match its key")
	ErrKeyFileExists    = errors.New("key file already exists")
	ErrNotRegularFile   = errors.New("key file is not a regular file")
)

type keyFileEnvelope struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Address     common.Address `json:"address"`
	KeyHex      hexutil.Bytes  `json:"keyHex"`
}

// Key is a loaded signing key
type Key struct {
	PrivateKey  *ecdsa.PrivateKey
	Description string
	Address     common.Address
}

// Generate returns a new random key
func Generate(description string) (*Key, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Key{
		PrivateKey:  priv,
		Description: description,
		Address:     crypto.PubkeyToAddress(priv.PublicKey),
	}, nil
}

// Save writes the key to path with KeyFileMode. An existing file is never
// overwritten.
func Save(path string, key *Key) error {
	data, err := json.MarshalIndent(keyFileEnvelope{
		Type:        KeyFileType,
		Description: key.Description,
		Address:     key.Address,
		KeyHex:      crypto.FromECDSA(key.PrivateKey),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, KeyFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		}
		return fmt.Errorf("create key file %q: %w", path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write key file %q: %w", path, err)
	}
	return f.Close()
}

// Load reads a key file. Permissions are checked on the open handle so the
// file cannot be swapped between the check and the read.
func Load(path string) (*Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key file %q: %w", path, err)
	}
	defer f.Close()
	if err := checkOpenFilePermissions(f); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("read key file %q: %w", path, err)
	}
	key, err := parseKeyFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse key file %q: %w", path, err)
	}
	return key, nil
}

func parseKeyFile(data []byte) (*Key, error) {
	var env keyFileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type != KeyFileType {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyType, env.Type)
	}
	priv, err := crypto.ToECDSA(env.KeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(priv.PublicKey)
	// The address is informational; an empty one is accepted
	if env.Address != (common.Address{}) && env.Address != addr {
		return nil, ErrAddressMismatch
	}
	return &Key{
		PrivateKey:  priv,
		Description: env.Description,
		Address:     addr,
	}, nil
}
