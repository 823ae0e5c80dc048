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

// Package auth turns signed submissions into authenticated operations.
//
// A submission carries a JSON payload and a 65 byte secp256k1 signature over
// keccak256(payload). The caller is the address recovered from the
// signature. Each caller's nonces must strictly increase, and a payload is
// refused once its expiry has passed.
package auth

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/tally/reject"
)

// DefaultMaxTTL bounds how far in the future a payload may expire
const DefaultMaxTTL = time.Hour

// Submission is the wire envelope accepted by the relay
type Submission struct {
	Payload   hexutil.Bytes `json:"payload"`
	Signature hexutil.Bytes `json:"signature"`
}

// Payload is the signed operation. Expires is a unix timestamp in seconds.
type Payload struct {
	Params   json.RawMessage `json:"params,omitempty"`
	Method   string          `json:"method"`
	Election uint64          `json:"election,omitempty"`
	Nonce    uint64          `json:"nonce"`
	Expires  int64           `json:"expires"`
}

// Operation is a verified payload together with its signer
type Operation struct {
	Payload
	Caller common.Address
}

type VerifierConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Now          func() time.Time
	MaxTTL       time.Duration
}

type Verifier struct {
	config  VerifierConfig
	logger  *slog.Logger
	metrics *verifierMetrics
	nonces  map[common.Address]uint64
	mu      sync.RWMutex
}

func NewVerifier(config VerifierConfig) *Verifier {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.MaxTTL <= 0 {
		config.MaxTTL = DefaultMaxTTL
	}
	v := &Verifier{
		config: config,
		nonces: make(map[common.Address]uint64),
	}
	if config.Logger == nil {
		v.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		v.logger = config.Logger
	}
	v.logger = v.logger.With("component", "auth")
	v.initMetrics(config.PromRegistry)
	return v
}

// Hash is the digest a submission signature covers
func Hash(payload []byte) common.Hash {
	return crypto.Keccak256Hash(payload)
}

// Sign encodes the payload and signs it with key
func Sign(key *ecdsa.PrivateKey, payload Payload) (Submission, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Submission{}, fmt.Errorf("encode payload: %w", err)
	}
	sig, err := crypto.Sign(Hash(data).Bytes(), key)
	if err != nil {
		return Submission{}, fmt.Errorf("sign payload: %w", err)
	}
	return Submission{Payload: data, Signature: sig}, nil
}

// Recover returns the address that produced sig over payload. A recovery id
// of 27 or 28 is accepted as well as 0 or 1.
func Recover(payload []byte, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrBadSignatureLength
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	if normalized[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, ErrBadRecoveryID
	}
	pub, err := crypto.SigToPub(Hash(payload).Bytes(), normalized)
	if err != nil {
		return common.Address{}, ErrBadSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify authenticates a submission and consumes its nonce. The nonce is
// only consumed when every other check passes.
func (v *Verifier) Verify(sub Submission) (Operation, error) {
	op, err := v.verify(sub)
	v.metrics.verifications.WithLabelValues(reject.Outcome(err)).Inc()
	if err != nil {
		v.logger.Debug("submission rejected", "error", err)
		return Operation{}, err
	}
	return op, nil
}

func (v *Verifier) verify(sub Submission) (Operation, error) {
	var payload Payload
	if err := json.Unmarshal(sub.Payload, &payload); err != nil {
		return Operation{}, ErrMalformedPayload
	}
	if payload.Method == "" {
		return Operation{}, ErrMissingMethod
	}
	caller, err := Recover(sub.Payload, sub.Signature)
	if err != nil {
		return Operation{}, err
	}
	now := v.config.Now()
	expires := time.Unix(payload.Expires, 0)
	if !now.Before(expires) {
		return Operation{}, ErrExpired
	}
	if expires.Sub(now) > v.config.MaxTTL {
		return Operation{}, ErrExpiryTooFar
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if last, ok := v.nonces[caller]; ok && payload.Nonce <= last {
		return Operation{}, ErrNonceReused
	}
	v.nonces[caller] = payload.Nonce
	return Operation{Payload: payload, Caller: caller}, nil
}

// Nonce returns the last nonce accepted from addr. The second result is
// false when addr never submitted.
func (v *Verifier) Nonce(addr common.Address) (uint64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, ok := v.nonces[addr]
	return n, ok
}
