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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const badgerMetricNamePrefix = "tally_database_blob_"

type blobMetrics struct {
	writes       prometheus.Counter
	bytesWritten prometheus.Counter
	gcRuns       prometheus.Counter
}

func (d *BlobStoreBadger) registerBlobMetrics() {
	promautoFactory := promauto.With(d.promRegistry)
	d.metrics = &blobMetrics{
		writes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "writes_total",
			Help: "Total number of blob writes",
		}),
		bytesWritten: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "bytes_written_total",
			Help: "Total bytes written to the blob store",
		}),
		gcRuns: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "gc_runs_total",
			Help: "Value log GC runs that rewrote a file",
		}),
	}
}
