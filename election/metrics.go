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

package election

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are shared by every election of a factory
type Metrics struct {
	operations *prometheus.CounterVec
	elections  *prometheus.GaugeVec
	votesCast  prometheus.Counter
}

// NewMetrics registers the election metrics with promRegistry. A nil
// registry yields unregistered metrics.
func NewMetrics(promRegistry prometheus.Registerer) *Metrics {
	promautoFactory := promauto.With(promRegistry)
	m := &Metrics{}
	m.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_election_operations_total",
			Help: "election operations by outcome",
		},
		[]string{"operation", "result"},
	)
	m.elections = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tally_elections",
			Help: "elections by lifecycle state",
		},
		[]string{"state"},
	)
	m.votesCast = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "tally_election_votes_cast_total",
		Help: "votes recorded across all elections",
	})
	return m
}

func (m *Metrics) transition(from, to State) {
	m.elections.WithLabelValues(from.String()).Dec()
	m.elections.WithLabelValues(to.String()).Inc()
}
