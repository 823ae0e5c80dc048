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

package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type registryMetrics struct {
	operations    *prometheus.CounterVec
	totalVoters   prometheus.Gauge
	totalApproved prometheus.Gauge
	totalBlocked  prometheus.Gauge
}

func (r *Registry) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	r.metrics = &registryMetrics{}
	r.metrics.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_registry_operations_total",
			Help: "registry operations by outcome",
		},
		[]string{"operation", "result"},
	)
	r.metrics.totalVoters = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_registry_voters",
		Help: "registered voters",
	})
	r.metrics.totalApproved = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_registry_voters_approved",
		Help: "approved voters that are not blocked",
	})
	r.metrics.totalBlocked = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_registry_voters_blocked",
		Help: "blocked voters",
	})
}

// updateGauges must be called with the registry lock held
func (r *Registry) updateGauges() {
	r.metrics.totalVoters.Set(float64(r.stats.TotalVoters))
	r.metrics.totalApproved.Set(float64(r.stats.TotalApproved))
	r.metrics.totalBlocked.Set(float64(r.stats.TotalBlocked))
}
