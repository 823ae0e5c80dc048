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

package factory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type factoryMetrics struct {
	operations *prometheus.CounterVec
	created    prometheus.Counter
	creators   prometheus.Gauge
	paused     prometheus.Gauge
}

func (f *Factory) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	f.metrics = &factoryMetrics{}
	f.metrics.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_factory_operations_total",
			Help: "factory operations by outcome",
		},
		[]string{"operation", "result"},
	)
	f.metrics.created = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "tally_factory_elections_created_total",
		Help: "elections created by the factory",
	})
	f.metrics.creators = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_factory_creators",
		Help: "approved election creators, including the owner",
	})
	f.metrics.paused = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_factory_paused",
		Help: "1 while election creation is paused",
	})
}

// updateGauges must be called with the factory lock held
func (f *Factory) updateGauges() {
	f.metrics.creators.Set(float64(f.creators.Len()))
	if f.paused {
		f.metrics.paused.Set(1)
	} else {
		f.metrics.paused.Set(0)
	}
}
