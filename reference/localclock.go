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

package reference

import "time"

// LocalClock is the out-of-scope "local clock driver" (LCL) collaborator of
// §1: it applies slews/steps and absolute frequency changes, reports raw
// time and any currently pending correction, and notifies listeners of
// external parameter changes. The tracker only ever talks to it through
// this interface.
type LocalClock interface {
	// Now returns the driver's raw local time (not including any pending
	// correction).
	Now() (time.Time, error)
	// PendingCorrection returns the currently outstanding, not-yet-applied
	// offset correction (§4.6 step 3's "uncorrected").
	PendingCorrection() (time.Duration, error)
	// AccumulateOffsetAndFrequency applies an incremental frequency
	// change (ppm delta from the driver's current absolute frequency) and
	// schedules offset seconds to be slewed at the given correction rate
	// (ppm willing to be spent per second of wall time; 0 means "as fast
	// as policy allows").
	AccumulateOffsetAndFrequency(freqDeltaPPM, offsetSeconds, correctionRate float64) error
	// AccumulateOffsetOnly applies only an offset correction, leaving the
	// absolute frequency untouched (§4.6 step 10's "too noisy" branch).
	AccumulateOffsetOnly(offsetSeconds, correctionRate float64) error
	// SetFrequency sets the driver's absolute frequency outright (ppm).
	// Used by FallbackDrift and manual frequency overrides.
	SetFrequency(freqPPM float64) error
	// Frequency reads the driver's current absolute frequency (ppm).
	Frequency() (float64, error)
	// Step cancels any pending offset correction and immediately jumps
	// the clock by step.
	Step(step time.Duration) error
	// SetLeap pushes leapSecond (-1, 0, or +1) to the driver; 0 clears
	// any previously pushed leap second.
	SetLeap(leapSecond int8) error
	// SetListener registers a callback invoked when an external agent
	// changes the clock's frequency or steps it outside of this
	// tracker's control (§5 "External-slew reentrancy"). kind describes
	// what changed ("step", "frequency", "unknown"); dfreq/doffset carry
	// the driver-reported deltas when known.
	SetListener(fn func(kind string, dfreq, doffset float64))
}
