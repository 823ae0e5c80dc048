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

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type verifierMetrics struct {
	verifications *prometheus.CounterVec
}

func (v *Verifier) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	v.metrics = &verifierMetrics{}
	v.metrics.verifications = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_auth_verifications_total",
			Help: "signed submissions verified by result",
		},
		[]string{"result"},
	)
}
