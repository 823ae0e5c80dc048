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

package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type snapshotMetrics struct {
	writes       *prometheus.CounterVec
	lastSequence prometheus.Gauge
	lastSize     prometheus.Gauge
}

func (s *Snapshotter) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	s.metrics = &snapshotMetrics{}
	s.metrics.writes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_snapshot_writes_total",
			Help: "snapshot writes by result",
		},
		[]string{"result"},
	)
	s.metrics.lastSequence = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_snapshot_last_sequence",
		Help: "sequence of the last snapshot written",
	})
	s.metrics.lastSize = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_snapshot_last_size_bytes",
		Help: "encoded size of the last snapshot written",
	})
}
