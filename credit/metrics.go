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

package credit

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type tokenMetrics struct {
	operations  *prometheus.CounterVec
	totalSupply prometheus.Gauge
	holders     prometheus.Gauge
}

func (t *Token) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	t.metrics = &tokenMetrics{}
	t.metrics.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_credit_operations_total",
			Help: "credit token operations by outcome",
		},
		[]string{"operation", "result"},
	)
	t.metrics.totalSupply = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_credit_total_supply",
		Help: "credit total supply in whole tokens (approximate)",
	})
	t.metrics.holders = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "tally_credit_holders",
		Help: "addresses with a balance entry",
	})
}

// updateGauges must be called with the token lock held
func (t *Token) updateGauges() {
	supply, _ := new(big.Float).Quo(
		new(big.Float).SetInt(t.totalSupply.ToBig()),
		new(big.Float).SetInt(Unit.ToBig()),
	).Float64()
	t.metrics.totalSupply.Set(supply)
	t.metrics.holders.Set(float64(len(t.balances)))
}
