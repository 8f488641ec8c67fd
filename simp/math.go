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
	"sort"
	"time"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"
)

// offsetFromDeltas reduces a set of valid samples to a single offset.
//
// Samples are sorted by ascending latency (lower latency means a smaller
// uncertainty window, so a more trustworthy offset estimate). The median
// is the value at the middle index of that latency-sorted sequence.
// Inliers are every sample within one sample standard deviation of the
// median, inclusive; the result is the mean of the inliers, truncated to
// whole microseconds.
//
// Must be called with at least one sample.
func offsetFromDeltas(deltas []delta) time.Duration {
	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].latency < deltas[j].latency
	})
	values := make([]float64, len(deltas))
	for i, d := range deltas {
		values[i] = float64(d.offset) / float64(time.Millisecond)
	}
	log.Tracef("sample deltas sorted by latency: %v", values)

	median := values[len(values)/2]
	stats := welford.New()
	for _, v := range values {
		stats.Add(v)
	}
	mean := stats.Mean()
	stddev := stats.Stddev()
	log.Tracef("sample delta statistics: median=%v, mean=%v, stddev=%v", median, mean, stddev)

	var sum float64
	var count int
	for _, v := range values {
		if v >= median-stddev && v <= median+stddev {
			sum += v
			count++
		}
	}
	log.Tracef("eliminated %d outliers out of %d samples", len(values)-count, len(values))

	// the truncating conversion is deliberate, do not round to nearest
	return time.Duration(int64(sum/float64(count)*1000.0)) * time.Microsecond
}
