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
	"time"

	"github.com/facebook/timesimp/protocol"
)

// delta is a single processed sample: half of one measured round trip,
// and the estimated server-minus-local offset at the round trip midpoint.
type delta struct {
	latency time.Duration
	offset  time.Duration
}

// newDelta is the delta calculation for a single returned packet.
//
// The idea is to compute the round trip time, then {half that + the sent
// time} gives the local time at the moment the server stamped the
// response. Comparing that moment to the server timestamp gives the
// offset to apply to the local clock. Assuming the forward and return
// legs are symmetric is the single largest source of error here; it is
// not correctable from the data available.
//
// Returns false if latency is negative, i.e. the local clock went
// backward between send and receive. Such a sample is never half-valid:
// callers must discard it and move on, it is an expected condition.
func newDelta(response *protocol.Response, current time.Time) (delta, bool) {
	latency := current.Sub(response.Client) / 2
	if latency < 0 {
		return delta{}, false
	}
	localAtMidpoint := response.Client.Add(latency)
	return delta{
		latency: latency,
		offset:  response.Server.Sub(localAtMidpoint),
	}, true
}
