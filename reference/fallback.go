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

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// fbSlot is one rung of the fallback-drift ladder (§4.3): target time
// constant 2^(fbMin+index) seconds.
type fbSlot struct {
	exponent int
	freqPPM  float64
	accumSec float64
}

// fallbackDrift maintains the ladder of exponential averages of absolute
// frequency described in §4.3, and arms/cancels the one outstanding
// scheduler timeout used to apply them when synchronization is lost.
type fallbackDrift struct {
	slots       []fbSlot // ordered ascending by exponent; empty if disabled
	nextFBDrift int      // 0 == "none armed"; otherwise the exponent of the slot last applied

	cancelArmed func()
}

func newFallbackDrift(min, max int) *fallbackDrift {
	if max <= 0 || min > max {
		return &fallbackDrift{}
	}
	slots := make([]fbSlot, 0, max-min+1)
	for i := min; i <= max; i++ {
		slots = append(slots, fbSlot{exponent: i})
	}
	return &fallbackDrift{slots: slots}
}

func (f *fallbackDrift) enabled() bool { return len(f.slots) > 0 }

// update applies the §4.3 "update rule" after every good measurement.
func (f *fallbackDrift) update(freqPPM, updateInterval, lastUpdateInterval float64) {
	f.nextFBDrift = 0
	if f.cancelArmed != nil {
		f.cancelArmed()
		f.cancelArmed = nil
	}
	if !f.enabled() {
		return
	}
	if updateInterval < 0 || updateInterval > 4*lastUpdateInterval {
		return
	}

	for i := range f.slots {
		slot := &f.slots[i]
		secs := math.Ldexp(1, slot.exponent) // 2^exponent

		if math.Abs(freqPPM-slot.freqPPM) > fbDriftDiscontinuityPPM {
			slot.accumSec = 0
		}

		if slot.accumSec < secs {
			denom := slot.accumSec + 0.5*updateInterval
			if denom > 0 {
				slot.freqPPM = (slot.freqPPM*slot.accumSec + 0.5*updateInterval*freqPPM) / denom
			}
			slot.accumSec += 0.5 * updateInterval
		} else {
			slot.freqPPM += (1 - math.Exp(-updateInterval/secs)) * (freqPPM - slot.freqPPM)
		}
	}
}

// armResult is what scheduleOnUnsync computes: the slot to apply
// immediately (if any) and the slot to arm for later (if any).
type armResult struct {
	ApplyNow    *fbSlot
	ArmExponent int // -1 if nothing armed
	ArmAt       time.Time
}

// scheduleOnUnsync implements the §4.3 "scheduling rule", called from
// SetUnsynchronised. now is the current cooked time; lastRefUpdate anchors
// the unsynchronised duration.
func (f *fallbackDrift) scheduleOnUnsync(now, lastRefUpdate time.Time) armResult {
	res := armResult{ArmExponent: -1}
	if !f.enabled() {
		return res
	}
	unsynchronised := now.Sub(lastRefUpdate).Seconds()

	eligible := make([]int, 0, len(f.slots))
	for i := range f.slots {
		if f.slots[i].accumSec >= math.Ldexp(1, f.slots[i].exponent) {
			eligible = append(eligible, i)
		}
	}
	slices.SortFunc(eligible, func(a, b int) int {
		return f.slots[a].exponent - f.slots[b].exponent
	})

	var applyIdx = -1
	for _, i := range eligible {
		secs := math.Ldexp(1, f.slots[i].exponent)
		if secs <= unsynchronised {
			applyIdx = i
		} else {
			if f.slots[i].exponent > f.nextFBDrift {
				res.ArmExponent = f.slots[i].exponent
				res.ArmAt = lastRefUpdate.Add(time.Duration(secs * float64(time.Second)))
			}
			break
		}
	}
	if applyIdx >= 0 {
		res.ApplyNow = &f.slots[applyIdx]
		f.nextFBDrift = f.slots[applyIdx].exponent
	}
	return res
}

// applyFBSlot pushes a slot's frequency estimate to the clock driver.
func applyFBSlot(driver LocalClock, slot *fbSlot) error {
	if err := driver.SetFrequency(slot.freqPPM); err != nil {
		return err
	}
	log.Infof("reference: fallback drift applying slot 2^%d = %.6g ppm", slot.exponent, slot.freqPPM)
	return nil
}
