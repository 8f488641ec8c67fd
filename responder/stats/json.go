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
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// JSONStats implements the Stats interface.
// It reports JSON metrics via an http interface.
// This is a passive implementation, only Start needs to be called.
type JSONStats struct {
	// keep these aligned to 64-bit for sync/atomic
	invalidFormat int64
	requests      int64
	responses     int64
	readError     int64
	listeners     int64
	workers       int64
}

// toMap converts struct to a map
func (j *JSONStats) toMap() (export map[string]int64) {
	export = make(map[string]int64)

	export["invalidformat"] = atomic.LoadInt64(&j.invalidFormat)
	export["requests"] = atomic.LoadInt64(&j.requests)
	export["responses"] = atomic.LoadInt64(&j.responses)
	export["readerror"] = atomic.LoadInt64(&j.readError)
	export["listeners"] = atomic.LoadInt64(&j.listeners)
	export["workers"] = atomic.LoadInt64(&j.workers)

	return export
}

// handleRequest is a handler used for all http monitoring requests
func (j *JSONStats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(j.toMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Start launches an http server reporting the counters as JSON.
// It blocks until ctx is cancelled or the server fails.
func (j *JSONStats) Start(ctx context.Context, monitoringPort int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", j.handleRequest)
	addr := fmt.Sprintf(":%d", monitoringPort)
	log.Debugf("Starting http json server on %s", addr)
	return serveUntilDone(ctx, &http.Server{Addr: addr, Handler: mux})
}

// IncInvalidFormat atomically adds 1 to the counter
func (j *JSONStats) IncInvalidFormat() {
	atomic.AddInt64(&j.invalidFormat, 1)
}

// IncRequests atomically adds 1 to the counter
func (j *JSONStats) IncRequests() {
	atomic.AddInt64(&j.requests, 1)
}

// IncResponses atomically adds 1 to the counter
func (j *JSONStats) IncResponses() {
	atomic.AddInt64(&j.responses, 1)
}

// IncReadError atomically adds 1 to the counter
func (j *JSONStats) IncReadError() {
	atomic.AddInt64(&j.readError, 1)
}

// IncListeners atomically adds 1 to the counter
func (j *JSONStats) IncListeners() {
	atomic.AddInt64(&j.listeners, 1)
}

// DecListeners atomically removes 1 from the counter
func (j *JSONStats) DecListeners() {
	atomic.AddInt64(&j.listeners, -1)
}

// IncWorkers atomically adds 1 to the counter
func (j *JSONStats) IncWorkers() {
	atomic.AddInt64(&j.workers, 1)
}

// DecWorkers atomically removes 1 from the counter
func (j *JSONStats) DecWorkers() {
	atomic.AddInt64(&j.workers, -1)
}
