// Copyright (c) 2025, The Collector Watcher Authors.
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

package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Repository scan metrics
	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watcher_scan_duration_seconds",
			Help:    "Time taken to scan one distribution checkout",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"distribution"},
	)

	componentsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_scan_components_total",
			Help: "Total number of component declarations successfully parsed",
		},
		[]string{"distribution", "component_type"},
	)

	parseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_scan_parse_errors_total",
			Help: "Total number of component declarations rejected by the parser",
		},
		[]string{"distribution", "component_type"},
	)
)
