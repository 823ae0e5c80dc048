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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/tally/auth"
	"github.com/blinklabs-io/tally/credit"
	"github.com/blinklabs-io/tally/election"
	"github.com/blinklabs-io/tally/reject"
)

var (
	ErrInvalidAddress    = reject.Validation("api: invalid address")
	ErrInvalidElectionID = reject.Validation("api: invalid election id")
	ErrMalformedBody     = reject.Validation("api: malformed submission")
)

type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Elections int  `json:"elections"`
	IsHealthy bool `json:"is_healthy"`
	Paused    bool `json:"paused"`
}

type OperationResponse struct {
	Result    any            `json:"result,omitempty"`
	Method    string         `json:"method"`
	RequestID string         `json:"requestId"`
	Caller    common.Address `json:"caller"`
	Nonce     uint64         `json:"nonce"`
}

type CreditResponse struct {
	TotalSupply  *uint256.Int     `json:"totalSupply"`
	Name         string           `json:"name"`
	Symbol       string           `json:"symbol"`
	Minters      []common.Address `json:"minters"`
	Decimals     int              `json:"decimals"`
	Owner        common.Address   `json:"owner"`
	Transferable bool             `json:"transferable"`
}

type BalanceResponse struct {
	Balance *uint256.Int   `json:"balance"`
	Address common.Address `json:"address"`
	Minter  bool           `json:"minter"`
}

type VoterResponse struct {
	Status string `json:"status"`
	Voter  any    `json:"voter"`
	// Eligible is the registry eligibility check used by elections
	Eligible bool `json:"eligible"`
}

type NonceResponse struct {
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
	Used    bool           `json:"used"`
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

func (a *Api) pathElection(r *http.Request) (*election.Election, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidElectionID
	}
	return a.config.Factory.Election(id)
}

func (a *Api) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "no such route")
		return
	}
	writeJSON(w, http.StatusOK, RootResponse{Name: "tally", Version: apiVersion})
}

func (a *Api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
		Elections: a.config.Factory.Count(),
		Paused:    a.config.Factory.Paused(),
	})
}

// handleOperation verifies a signed submission and dispatches it. The
// response carries the recovered caller so relays can confirm the signer.
func (a *Api) handleOperation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		a.writeRejection(w, r, ErrMalformedBody)
		return
	}
	var sub auth.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		a.writeRejection(w, r, ErrMalformedBody)
		return
	}
	op, err := a.config.Verifier.Verify(sub)
	if err != nil {
		a.metrics.operations.WithLabelValues("unverified", reject.Outcome(err)).Inc()
		a.writeRejection(w, r, err)
		return
	}
	ctx, span := a.tracer.Start(
		r.Context(),
		op.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("tally.method", op.Method),
			attribute.String("tally.caller", op.Caller.Hex()),
			attribute.Int64("tally.election", int64(op.Election)), //nolint:gosec
			attribute.String("tally.request_id", w.Header().Get(RequestIDHeader)),
		),
	)
	defer span.End()
	result, err := a.dispatch(ctx, op)
	metricMethod := op.Method
	if errors.Is(err, ErrUnknownMethod) {
		metricMethod = "unknown"
	}
	a.metrics.operations.WithLabelValues(metricMethod, reject.Outcome(err)).Inc()
	if err != nil {
		span.SetAttributes(attribute.String("tally.reject_kind", reject.KindOf(err).Label()))
		span.SetStatus(codes.Error, err.Error())
		a.writeRejection(w, r, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	writeJSON(w, http.StatusOK, OperationResponse{
		Method:    op.Method,
		Caller:    op.Caller,
		Nonce:     op.Nonce,
		RequestID: w.Header().Get(RequestIDHeader),
		Result:    result,
	})
}

func (a *Api) handleElections(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	all := a.config.Factory.AllElections()
	SetPaginationHeaders(w, len(all), params)
	writeJSON(w, http.StatusOK, Paginate(all, params))
}

func (a *Api) handleElection(w http.ResponseWriter, r *http.Request) {
	e, err := a.pathElection(r)
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Info())
}

func (a *Api) handleCandidates(w http.ResponseWriter, r *http.Request) {
	e, err := a.pathElection(r)
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Candidates())
}

func (a *Api) handleResults(w http.ResponseWriter, r *http.Request) {
	e, err := a.pathElection(r)
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	results, err := e.Results()
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *Api) handleElectionVoter(w http.ResponseWriter, r *http.Request) {
	e, err := a.pathElection(r)
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e.VoterStatus(addr))
}

func (a *Api) handleVoter(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	voter := a.config.Registry.VoterInfo(addr)
	writeJSON(w, http.StatusOK, VoterResponse{
		Voter:    voter,
		Status:   voter.EffectiveStatus().String(),
		Eligible: a.config.Registry.IsVoterEligible(addr),
	})
}

func (a *Api) handleVoterStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.config.Registry.Stats())
}

func (a *Api) handleCredit(w http.ResponseWriter, _ *http.Request) {
	tok := a.config.Token
	writeJSON(w, http.StatusOK, CreditResponse{
		Name:         credit.Name,
		Symbol:       credit.Symbol,
		Decimals:     credit.Decimals,
		TotalSupply:  tok.TotalSupply(),
		Owner:        tok.Owner(),
		Minters:      tok.Minters(),
		Transferable: tok.Transferable(),
	})
}

func (a *Api) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: addr,
		Balance: a.config.Token.BalanceOf(addr),
		Minter:  a.config.Token.IsMinter(addr),
	})
}

// handleNonce lets signers pick their next nonce
func (a *Api) handleNonce(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	n, used := a.config.Verifier.Nonce(addr)
	writeJSON(w, http.StatusOK, NonceResponse{Address: addr, Nonce: n, Used: used})
}

func (a *Api) handleAudit(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var after uint64
	if v := r.URL.Query().Get("after"); v != "" {
		after, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after sequence")
			return
		}
	}
	rows, err := a.config.Metadata.GetAuditEvents(r.URL.Query().Get("type"), after, params.Count, nil)
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	ret := make([]AuditEventResponse, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, AuditEventResponse{
			Sequence:  row.Sequence,
			EventID:   row.EventID,
			Type:      row.Type,
			Timestamp: row.Timestamp,
			Data:      json.RawMessage(row.Data),
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (a *Api) handleCommitments(w http.ResponseWriter, r *http.Request) {
	e, err := a.pathElection(r)
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	rows, err := a.config.Metadata.GetVoteCommitments(e.ID(), nil)
	if err != nil {
		a.writeRejection(w, r, err)
		return
	}
	ret := make([]CommitmentResponse, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, CommitmentResponse{
			Voter:        common.BytesToAddress(row.Voter),
			VoteHash:     common.BytesToHash(row.VoteHash),
			CandidateID:  row.CandidateID,
			CreditBurned: row.CreditBurned,
			CastAt:       row.CastAt,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}
