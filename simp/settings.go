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
)

const (
	// MinSamples is the minimum (and minimum surviving) number of samples per sync
	MinSamples = 3
	// MinJitter is the minimum delay between two samples
	MinJitter = 10 * time.Microsecond
	// MaxJitter is the maximum delay between two samples
	MaxJitter = 10 * time.Second
	// DefaultSamples is the default number of samples per sync
	DefaultSamples = 5
	// DefaultJitter is the default maximum delay between two samples
	DefaultJitter = 2 * time.Second
)

// Settings control one synchronization attempt.
// Values are clamped to acceptable ones before use, e.g. setting Samples
// to 10 will result in 11 being selected.
type Settings struct {
	// Samples is how many round trips to attempt. Forced odd, in [3, 255].
	Samples uint8
	// Jitter is the maximum random delay inserted between two samples.
	// Clamped to [10us, 10s].
	Jitter time.Duration
}

// DefaultSettings returns the settings used when callers have no opinion
func DefaultSettings() Settings {
	return Settings{Samples: DefaultSamples, Jitter: DefaultJitter}
}

// Normalize clamps settings to acceptable values. It is total and
// idempotent: any input maps to a valid value, never rejected.
// Samples is kept odd so that the aggregation step can restore oddness
// with a single deterministic removal when a sample is lost.
func (s Settings) Normalize() Settings {
	samples := s.Samples
	if samples%2 == 0 {
		// even max is 254, so this never wraps
		samples++
	}
	if samples < MinSamples {
		samples = MinSamples
	}
	jitter := s.Jitter
	if jitter < MinJitter {
		jitter = MinJitter
	}
	if jitter > MaxJitter {
		jitter = MaxJitter
	}
	return Settings{Samples: samples, Jitter: jitter}
}
