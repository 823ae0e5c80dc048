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

package tally

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/tally/factory"
	"github.com/blinklabs-io/tally/internal/test/testutil"
)

var testOwner = testutil.Address("owner")

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		opts    []ConfigOptionFunc
		wantErr bool
	}{
		{name: "valid", opts: []ConfigOptionFunc{WithOwner(testOwner)}},
		{name: "missing owner", wantErr: true},
		{
			name:    "negative snapshot interval",
			opts:    []ConfigOptionFunc{WithOwner(testOwner), WithSnapshotInterval(-time.Second)},
			wantErr: true,
		},
		{
			name:    "negative operation ttl",
			opts:    []ConfigOptionFunc{WithOwner(testOwner), WithOperationTTL(-time.Second)},
			wantErr: true,
		},
		{
			name:    "stdout tracing without tracing",
			opts:    []ConfigOptionFunc{WithOwner(testOwner), WithTracingStdout(true)},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(NewConfig(tc.opts...))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDefaultFactoryAddress(t *testing.T) {
	n, err := New(NewConfig(WithOwner(testOwner)))
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(testOwner, 0), n.config.factoryAddress)
	assert.Equal(t, defaultShutdownTimeout, n.config.shutdownTimeout)
}

func startNode(t *testing.T, opts ...ConfigOptionFunc) (*Node, <-chan error) {
	t.Helper()
	opts = append([]ConfigOptionFunc{
		WithOwner(testOwner),
		WithPrometheusRegistry(prometheus.NewRegistry()),
	}, opts...)
	n, err := New(NewConfig(opts...))
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run()
	}()
	select {
	case <-n.Ready():
	case err := <-errCh:
		t.Fatalf("node failed to start: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for node to start")
	}
	return n, errCh
}

func stopNode(t *testing.T, n *Node, errCh <-chan error) {
	t.Helper()
	require.NoError(t, n.Stop())
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for node to stop")
	}
	// Stop is idempotent
	require.NoError(t, n.Stop())
}

func TestRunStopInMemory(t *testing.T) {
	n, errCh := startNode(t)
	assert.NotNil(t, n.Registry())
	assert.NotNil(t, n.Token())
	assert.NotNil(t, n.Verifier())
	assert.NotNil(t, n.Api())
	assert.NotNil(t, n.EventBus())
	assert.NotNil(t, n.Database())
	assert.Equal(t, testOwner, n.Factory().Owner())
	stopNode(t, n, errCh)
}

func TestElectionGrantsMinter(t *testing.T) {
	clock := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	n, errCh := startNode(t, WithClock(clock.Now))
	defer stopNode(t, n, errCh)
	_, addr, err := n.Factory().CreateElection(testOwner, factory.CreateRequest{
		Title:     "Board",
		StartTime: clock.Now().Add(time.Hour),
		EndTime:   clock.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, n.Token().IsMinter(addr))
}

func TestRestartRestoresState(t *testing.T) {
	dataDir := t.TempDir()
	clock := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	voter := testutil.Address("voter")

	n, errCh := startNode(t, WithDatabasePath(dataDir), WithClock(clock.Now))
	id, addr, err := n.Factory().CreateElection(testOwner, factory.CreateRequest{
		Title:     "Budget",
		StartTime: clock.Now().Add(time.Hour),
		EndTime:   clock.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, n.Token().Mint(testOwner, voter, uint256.NewInt(1)))
	stopNode(t, n, errCh)

	n, errCh = startNode(t, WithDatabasePath(dataDir), WithClock(clock.Now))
	defer stopNode(t, n, errCh)
	assert.Equal(t, 1, n.Factory().Count())
	e, err := n.Factory().Election(id)
	require.NoError(t, err)
	assert.Equal(t, addr, e.Address())
	assert.Equal(t, "Budget", e.Info().Title)
	assert.True(t, n.Token().IsMinter(addr))
	assert.Equal(t, uint64(1), n.Token().BalanceOf(voter).Uint64())
	assert.NotEqual(t, common.Address{}, n.Factory().Address())
}
