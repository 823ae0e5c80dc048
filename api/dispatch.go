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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/election"
	"github.com/blinklabs-io/tally/factory"
	"github.com/blinklabs-io/tally/reject"
)

var (
	ErrUnknownMethod   = reject.Validation("api: unknown method")
	ErrMalformedParams = reject.Validation("api: malformed params")
	ErrNoElection      = reject.Validation("api: election id must be set")
)

type operationFunc func(ctx context.Context, op auth.Operation) (any, error)

// decodeParams strictly decodes the operation params into v. Missing
// params decode as an empty object.
func decodeParams(op auth.Operation, v any) error {
	raw := op.Params
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return reject.Validation(ErrMalformedParams.Reason + ": " + err.Error())
	}
	return nil
}

// typed adapts a function over decoded params to an operationFunc
func typed[P any](fn func(op auth.Operation, p P) (any, error)) operationFunc {
	return func(_ context.Context, op auth.Operation) (any, error) {
		var p P
		if err := decodeParams(op, &p); err != nil {
			return nil, err
		}
		return fn(op, p)
	}
}

// onElection resolves the payload's election before calling fn
func (a *Api) onElection(fn func(e *election.Election, op auth.Operation) error) operationFunc {
	return func(_ context.Context, op auth.Operation) (any, error) {
		if op.Election == 0 {
			return nil, ErrNoElection
		}
		e, err := a.config.Factory.Election(op.Election)
		if err != nil {
			return nil, err
		}
		return nil, fn(e, op)
	}
}

type accountParams struct {
	Account common.Address `json:"account"`
}

type voterParams struct {
	Voter  common.Address `json:"voter"`
	Reason string         `json:"reason,omitempty"`
}

type registerVoterParams struct {
	VoterID string      `json:"voterId"`
	Name    string      `json:"name"`
	KYCHash common.Hash `json:"kycHash"`
	Age     uint32      `json:"age"`
}

type ageParams struct {
	Age uint32 `json:"age"`
}

type ownerParams struct {
	NewOwner common.Address `json:"newOwner"`
}

type amountParams struct {
	Amount  *uint256.Int   `json:"amount"`
	To      common.Address `json:"to"`
	From    common.Address `json:"from"`
	Spender common.Address `json:"spender"`
}

type transferableParams struct {
	Transferable bool `json:"transferable"`
}

// createElectionParams carries unix timestamps in seconds
type createElectionParams struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	Type                 string `json:"type"`
	MetadataRef          string `json:"metadataRef"`
	StartTime            int64  `json:"startTime"`
	EndTime              int64  `json:"endTime"`
	AllowRealtimeResults bool   `json:"allowRealtimeResults"`
}

type createElectionResult struct {
	ID      uint64         `json:"id"`
	Address common.Address `json:"address"`
}

type initializeParams struct {
	TokenAmount  *uint256.Int              `json:"tokenAmount"`
	Candidates   []election.CandidateInput `json:"candidates"`
	IsPublic     bool                      `json:"isPublic"`
	RequireToken bool                      `json:"requireToken"`
}

type voteParams struct {
	VoteHash    common.Hash `json:"voteHash"`
	CandidateID uint64      `json:"candidateId"`
}

type candidateParams struct {
	CandidateID uint64 `json:"candidateId"`
}

func electionTyped[P any](a *Api, fn func(e *election.Election, op auth.Operation, p P) error) operationFunc {
	return a.onElection(func(e *election.Election, op auth.Operation) error {
		var p P
		if err := decodeParams(op, &p); err != nil {
			return err
		}
		return fn(e, op, p)
	})
}

func none(fn func(caller common.Address) error) operationFunc {
	return func(_ context.Context, op auth.Operation) (any, error) {
		return nil, fn(op.Caller)
	}
}

// operationTable maps every signed method name to its aggregate call. The
// caller is always the recovered signer.
func (a *Api) operationTable() map[string]operationFunc {
	reg := a.config.Registry
	tok := a.config.Token
	fac := a.config.Factory
	return map[string]operationFunc{
		// registry
		"registry.registerVoter": typed(func(op auth.Operation, p registerVoterParams) (any, error) {
			return nil, reg.RegisterVoter(op.Caller, p.VoterID, p.Name, p.Age, p.KYCHash)
		}),
		"registry.approveVoter": typed(func(op auth.Operation, p voterParams) (any, error) {
			return nil, reg.ApproveVoter(op.Caller, p.Voter)
		}),
		"registry.rejectVoter": typed(func(op auth.Operation, p voterParams) (any, error) {
			return nil, reg.RejectVoter(op.Caller, p.Voter, p.Reason)
		}),
		"registry.blockVoter": typed(func(op auth.Operation, p voterParams) (any, error) {
			return nil, reg.BlockVoter(op.Caller, p.Voter, p.Reason)
		}),
		"registry.unblockVoter": typed(func(op auth.Operation, p voterParams) (any, error) {
			return nil, reg.UnblockVoter(op.Caller, p.Voter)
		}),
		"registry.addChairperson": typed(func(op auth.Operation, p accountParams) (any, error) {
			return nil, reg.AddChairperson(op.Caller, p.Account)
		}),
		"registry.removeChairperson": typed(func(op auth.Operation, p accountParams) (any, error) {
			return nil, reg.RemoveChairperson(op.Caller, p.Account)
		}),
		"registry.updateMinVotingAge": typed(func(op auth.Operation, p ageParams) (any, error) {
			return nil, reg.UpdateMinVotingAge(op.Caller, p.Age)
		}),
		"registry.transferOwnership": typed(func(op auth.Operation, p ownerParams) (any, error) {
			return nil, reg.TransferOwnership(op.Caller, p.NewOwner)
		}),

		// credit
		"credit.mint": typed(func(op auth.Operation, p amountParams) (any, error) {
			return nil, tok.Mint(op.Caller, p.To, p.Amount)
		}),
		"credit.burn": typed(func(op auth.Operation, p amountParams) (any, error) {
			return nil, tok.Burn(op.Caller, p.From, p.Amount)
		}),
		"credit.transfer": typed(func(op auth.Operation, p amountParams) (any, error) {
			return nil, tok.Transfer(op.Caller, p.To, p.Amount)
		}),
		"credit.approve": typed(func(op auth.Operation, p amountParams) (any, error) {
			return nil, tok.Approve(op.Caller, p.Spender, p.Amount)
		}),
		"credit.transferFrom": typed(func(op auth.Operation, p amountParams) (any, error) {
			return nil, tok.TransferFrom(op.Caller, p.From, p.To, p.Amount)
		}),
		"credit.addMinter": typed(func(op auth.Operation, p accountParams) (any, error) {
			return nil, tok.AddMinter(op.Caller, p.Account)
		}),
		"credit.removeMinter": typed(func(op auth.Operation, p accountParams) (any, error) {
			return nil, tok.RemoveMinter(op.Caller, p.Account)
		}),
		"credit.setTransferable": typed(func(op auth.Operation, p transferableParams) (any, error) {
			return nil, tok.SetTransferable(op.Caller, p.Transferable)
		}),
		"credit.transferOwnership": typed(func(op auth.Operation, p ownerParams) (any, error) {
			return nil, tok.TransferOwnership(op.Caller, p.NewOwner)
		}),

		// factory
		"factory.createElection": typed(func(op auth.Operation, p createElectionParams) (any, error) {
			id, addr, err := fac.CreateElection(op.Caller, factory.CreateRequest{
				Title:                p.Title,
				Description:          p.Description,
				Type:                 p.Type,
				MetadataRef:          p.MetadataRef,
				StartTime:            time.Unix(p.StartTime, 0).UTC(),
				EndTime:              time.Unix(p.EndTime, 0).UTC(),
				AllowRealtimeResults: p.AllowRealtimeResults,
			})
			if err != nil {
				return nil, err
			}
			return createElectionResult{ID: id, Address: addr}, nil
		}),
		"factory.addCreator": typed(func(op auth.Operation, p accountParams) (any, error) {
			return nil, fac.AddCreator(op.Caller, p.Account)
		}),
		"factory.removeCreator": typed(func(op auth.Operation, p accountParams) (any, error) {
			return nil, fac.RemoveCreator(op.Caller, p.Account)
		}),
		"factory.pause":   none(fac.Pause),
		"factory.unpause": none(fac.Unpause),
		"factory.transferOwnership": typed(func(op auth.Operation, p ownerParams) (any, error) {
			return nil, fac.TransferOwnership(op.Caller, p.NewOwner)
		}),

		// election, addressed by the payload's election id
		"election.initialize": electionTyped(a, func(e *election.Election, op auth.Operation, p initializeParams) error {
			return e.InitializeWithCandidates(op.Caller, p.IsPublic, p.RequireToken, p.TokenAmount, p.Candidates)
		}),
		"election.addVoter": electionTyped(a, func(e *election.Election, op auth.Operation, p voterParams) error {
			return e.AddVoter(op.Caller, p.Voter)
		}),
		"election.registerPublic": a.onElection(func(e *election.Election, op auth.Operation) error {
			return e.RegisterPublic(op.Caller)
		}),
		"election.vote": electionTyped(a, func(e *election.Election, op auth.Operation, p voteParams) error {
			return e.Vote(op.Caller, p.CandidateID, p.VoteHash)
		}),
		"election.deactivateCandidate": electionTyped(a, func(e *election.Election, op auth.Operation, p candidateParams) error {
			return e.DeactivateCandidate(op.Caller, p.CandidateID)
		}),
		"election.pause": a.onElection(func(e *election.Election, op auth.Operation) error {
			return e.Pause(op.Caller)
		}),
		"election.resume": a.onElection(func(e *election.Election, op auth.Operation) error {
			return e.Resume(op.Caller)
		}),
		"election.end": a.onElection(func(e *election.Election, op auth.Operation) error {
			return e.End(op.Caller)
		}),
		"election.finalize": a.onElection(func(e *election.Election, op auth.Operation) error {
			return e.Finalize(op.Caller)
		}),
	}
}

// dispatch runs a verified operation inside its own span
func (a *Api) dispatch(ctx context.Context, op auth.Operation) (any, error) {
	fn, ok := a.operations[op.Method]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return fn(ctx, op)
}
