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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
}

func (a *Api) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	a.metrics = &apiMetrics{}
	a.metrics.requests = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_api_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
	a.metrics.duration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tally_api_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	a.metrics.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_api_operations_total",
			Help: "signed operations dispatched by method and result",
		},
		[]string{"method", "result"},
	)
}
