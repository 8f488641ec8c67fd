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

package simp

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/timesimp/protocol"
)

// Syncer is the capability contract the engine requires from its
// environment. Implementations for different transports and storages are
// swapped behind this interface; the engine itself never performs IO.
type Syncer interface {
	// LoadOffset returns the currently stored offset, or nil if no
	// offset is currently stored. Microsecond precision is enough for
	// most purposes, whatever it is it must agree with StoreOffset.
	LoadOffset(ctx context.Context) (*time.Duration, error)

	// StoreOffset persists an offset. Once StoreOffset has succeeded,
	// LoadOffset must return non-nil. It may be called twice within one
	// sync attempt, so it must be an idempotent overwrite, not an append.
	StoreOffset(ctx context.Context, offset time.Duration) error

	// QueryServer performs one network round trip: send the request,
	// obtain the matching response. It should do as little else as
	// possible to avoid adding unnecessary latency. With a connecting
	// protocol such as TCP or QUIC, keep the connection alive with a
	// timeout longer than Settings.Jitter so that all but the first
	// sample are a single round trip.
	QueryServer(ctx context.Context, request *protocol.Request) (*protocol.Response, error)

	// Sleep suspends for at least the given duration. Usually a wrapper
	// around time.Sleep or a timer honoring ctx cancellation.
	Sleep(ctx context.Context, duration time.Duration)
}

// AdjustedNow loads the stored offset and applies it to the current local
// time. An absent offset counts as zero. Provided as convenience for
// simple use; you may want to implement your own.
func AdjustedNow(ctx context.Context, s Syncer) (time.Time, error) {
	offset, err := s.LoadOffset(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if offset == nil {
		return time.Now(), nil
	}
	return time.Now().Add(*offset), nil
}

// Answer implements the server side of the exchange: the client timestamp
// is echoed back unchanged, the server timestamp is the responder's own
// adjusted current time. The surrounding endpoint should do as little
// else as possible to avoid adding unnecessary latency.
func Answer(ctx context.Context, s Syncer, request *protocol.Request) (*protocol.Response, error) {
	now, err := AdjustedNow(ctx, s)
	if err != nil {
		return nil, err
	}
	return &protocol.Response{Client: request.Client, Server: now}, nil
}

// AttemptSync is the main client driver: it takes the configured number
// of samples against the Syncer, spread out by random jitter, filters out
// statistical outliers and stores the resulting offset.
//
// Call it in a loop, pacing iterations on the raw system monotonic clock
// so the schedule doesn't get influenced by the offset it computes.
//
// If no offset is stored yet, the first delta obtained from the server is
// stored right away. That yields an "accurate enough" timestamp quickly
// instead of waiting for the full round of samples; errors from that
// provisional store are ignored.
//
// A nil offset with a nil error means not enough samples were obtained to
// have confidence in the result, likely because QueryServer failed for
// most tries. Per-sample failures are logged, not returned; the stored
// offset is left untouched in that case. Errors from the initial load and
// from the final store are returned: in the latter case an offset was
// computed but not durably recorded.
//
// Transport errors and a locally observed backward clock step are the two
// recoverable per-sample conditions; both reduce the effective sample
// count and are never retried within one call. The engine takes samples
// strictly sequentially, one request in flight at a time: jitter-spread
// timing, not throughput, is the goal.
func AttemptSync(ctx context.Context, s Syncer, settings Settings) (*time.Duration, error) {
	settings = settings.Normalize()
	stored, err := s.LoadOffset(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stored offset: %w", err)
	}
	haveOffset := stored != nil
	log.Tracef("starting delta collection: samples=%d, stored offset known=%v", settings.Samples, haveOffset)

	gap := time.Duration(0)
	deltas := make([]delta, 0, settings.Samples)
	for i := 0; i < int(settings.Samples); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Tracef("sleeping %v to spread out requests, max jitter %v", gap, settings.Jitter)
		s.Sleep(ctx, gap)

		// draw the next gap before querying, so a failed query doesn't
		// reloop with a stale delay
		gap = time.Duration(rand.Int63n(int64(settings.Jitter) + 1))

		response, err := s.QueryServer(ctx, &protocol.Request{Client: time.Now()})
		if err != nil {
			log.Errorf("query failed: %v", err)
			continue
		}

		d, ok := newDelta(response, time.Now())
		if !ok {
			log.Error("local clock went backwards! skipping this sample")
			continue
		}
		log.Tracef("obtained raw offset from server: latency=%v, delta=%v", d.latency, d.offset)
		deltas = append(deltas, d)

		if !haveOffset {
			log.Debugf("no offset stored, storing initial delta %v", d.offset)
			if err := s.StoreOffset(ctx, d.offset); err != nil {
				// best effort only, the next sample will try again
				log.Debugf("failed to store provisional offset: %v", err)
			} else {
				haveOffset = true
			}
		}
	}

	if len(deltas) > 0 && len(deltas)%2 == 0 {
		// with an even number of samples one must go so the median index
		// is well defined. The first sample is the most likely to carry
		// connection establishment overhead, drop that one.
		deltas = deltas[1:]
	}

	if len(deltas) < MinSamples {
		log.Debugf("not enough samples for confidence: got %d, need %d", len(deltas), MinSamples)
		return nil, nil
	}

	offset := offsetFromDeltas(deltas)
	log.Debugf("storing calculated offset %v", offset)
	if err := s.StoreOffset(ctx, offset); err != nil {
		return nil, fmt.Errorf("storing calculated offset: %w", err)
	}
	return &offset, nil
}
