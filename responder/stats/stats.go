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

/*
Package stats implements statistics collection and reporting.
It is used by the responder server to report internal statistics, such as
the number of requests and responses.
*/
package stats

import (
	"context"
	"errors"
	"net/http"
)

// Stats is a metric collection interface used by the responder.
type Stats interface {
	// Start runs the stats reporter on the given port, blocking until
	// ctx is cancelled or the http server fails
	Start(ctx context.Context, monitoringPort int) error

	// IncInvalidFormat atomically adds 1 to the counter
	IncInvalidFormat()
	// IncRequests atomically adds 1 to the counter
	IncRequests()
	// IncResponses atomically adds 1 to the counter
	IncResponses()
	// IncReadError atomically adds 1 to the counter
	IncReadError()
	// IncListeners atomically adds 1 to the counter
	IncListeners()
	// DecListeners atomically removes 1 from the counter
	DecListeners()
	// IncWorkers atomically adds 1 to the counter
	IncWorkers()
	// DecWorkers atomically removes 1 from the counter
	DecWorkers()
}

// serveUntilDone runs srv and closes it when ctx is cancelled, so callers
// waiting on Start are unblocked during shutdown.
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
