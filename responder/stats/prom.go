/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PromStats implements the Stats interface.
// It exposes the counters in prometheus format on /metrics.
type PromStats struct {
	registry *prometheus.Registry

	invalidFormat prometheus.Counter
	requests      prometheus.Counter
	responses     prometheus.Counter
	readError     prometheus.Counter
	listeners     prometheus.Gauge
	workers       prometheus.Gauge
}

// NewPromStats creates a PromStats with all collectors registered
func NewPromStats() *PromStats {
	p := &PromStats{
		registry: prometheus.NewRegistry(),
		invalidFormat: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timesimp_invalid_format_total",
			Help: "Number of packets that failed to parse",
		}),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timesimp_requests_total",
			Help: "Number of requests received",
		}),
		responses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timesimp_responses_total",
			Help: "Number of responses sent",
		}),
		readError: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timesimp_read_errors_total",
			Help: "Number of read errors on listening sockets",
		}),
		listeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timesimp_listeners",
			Help: "Number of active listeners",
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timesimp_workers",
			Help: "Number of active workers",
		}),
	}
	p.registry.MustRegister(p.invalidFormat, p.requests, p.responses, p.readError, p.listeners, p.workers)
	return p
}

// Start launches an http server exposing the prometheus registry.
// It blocks until ctx is cancelled or the server fails.
func (p *PromStats) Start(ctx context.Context, monitoringPort int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		p.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))
	addr := fmt.Sprintf(":%d", monitoringPort)
	log.Debugf("Starting prometheus exporter on %s", addr)
	return serveUntilDone(ctx, &http.Server{Addr: addr, Handler: mux})
}

// IncInvalidFormat adds 1 to the counter
func (p *PromStats) IncInvalidFormat() { p.invalidFormat.Inc() }

// IncRequests adds 1 to the counter
func (p *PromStats) IncRequests() { p.requests.Inc() }

// IncResponses adds 1 to the counter
func (p *PromStats) IncResponses() { p.responses.Inc() }

// IncReadError adds 1 to the counter
func (p *PromStats) IncReadError() { p.readError.Inc() }

// IncListeners adds 1 to the gauge
func (p *PromStats) IncListeners() { p.listeners.Inc() }

// DecListeners removes 1 from the gauge
func (p *PromStats) DecListeners() { p.listeners.Dec() }

// IncWorkers adds 1 to the gauge
func (p *PromStats) IncWorkers() { p.workers.Inc() }

// DecWorkers removes 1 from the gauge
func (p *PromStats) DecWorkers() { p.workers.Dec() }
