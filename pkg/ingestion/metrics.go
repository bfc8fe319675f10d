// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion pipeline.
type metricsIngestion struct {
	once sync.Once

	filesSeen     prometheus.Counter
	filesFiltered prometheus.Counter
	filesSent     prometheus.Counter
	readErrors    prometheus.Counter
	sendErrors    prometheus.Counter

	readDuration  prometheus.Histogram
	totalDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.filesSeen = prometheus.NewCounter(prometheus.CounterOpts{Name: "cardboard_ing_files_seen_total", Help: "Notes enumerated by the vault"})
		m.filesFiltered = prometheus.NewCounter(prometheus.CounterOpts{Name: "cardboard_ing_files_filtered_total", Help: "Notes rejected by file filters"})
		m.filesSent = prometheus.NewCounter(prometheus.CounterOpts{Name: "cardboard_ing_files_sent_total", Help: "fileAdded messages sent to the engine"})
		m.readErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "cardboard_ing_read_errors_total", Help: "Notes skipped because they could not be read"})
		m.sendErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "cardboard_ing_send_errors_total", Help: "Failed sends to the engine"})

		buckets := []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}
		m.readDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cardboard_ing_read_seconds", Help: "Duration of a single note read", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cardboard_ing_total_seconds", Help: "Duration of an ingestion run", Buckets: buckets})

		prometheus.MustRegister(
			m.filesSeen, m.filesFiltered, m.filesSent, m.readErrors, m.sendErrors,
			m.readDuration, m.totalDuration,
		)
	})
}
