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
	"io"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Tracker is the TrackerFacade of §4.1: the single owner of the tracker
// state, handed to the event loop rather than hiding behind package-level
// globals (§9 "Global mutable state").
type Tracker struct {
	mu sync.Mutex

	cfg   *Config
	state State

	driver LocalClock
	sched  Scheduler

	sanity    *sanityGate
	leap      *leapOracle
	fbDrift   *fallbackDrift
	mode      *modeMachine
	estimator *estimator

	trackingLog io.WriteCloser

	fbCancel func()
}

// NewTracker constructs a Tracker bound to driver and sched. Call Initialise
// before any other method.
func NewTracker(cfg *Config, driver LocalClock, sched Scheduler) *Tracker {
	t := &Tracker{
		cfg:    cfg,
		driver: driver,
		sched:  sched,
		sanity: newSanityGate(cfg),
		leap:   newLeapOracle(cfg.LeapTzname),
		fbDrift: newFallbackDrift(cfg.FBDriftMin, cfg.FBDriftMax),
		mode:    newModeMachine(cfg.InitStepThreshold),
	}
	t.state.Skew = MinSkew
	return t
}

// Initialise implements §4.1's init sequence.
func (t *Tracker) Initialise() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if freqPPM, skewPPM, ok := ReadDriftFile(t.cfg.DriftFile); ok {
		if err := t.driver.SetFrequency(freqPPM); err != nil {
			log.Warnf("reference: seeding driver frequency from drift file failed: %v", err)
		} else {
			t.state.OurFrequency = freqPPM
		}
		t.state.Skew = math.Max(MinSkew, skewPPM*1e-6)
	} else if f, err := t.driver.Frequency(); err == nil {
		t.state.OurFrequency = f
	}

	t.leap.validate()

	if t.cfg.LogTracking && t.cfg.TrackingLog != "" {
		f, err := openTrackingLog(t.cfg.TrackingLog)
		if err != nil {
			log.Warnf("reference: opening tracking log: %v", err)
		} else {
			t.trackingLog = f
		}
	}

	t.driver.SetListener(t.onDriverChange)

	t.estimator = &estimator{
		cfg:     t.cfg,
		state:   &t.state,
		driver:  t.driver,
		sanity:  t.sanity,
		leap:    t.leap,
		fbDrift: t.fbDrift,
	}
	if t.trackingLog != nil {
		t.estimator.trackingLog = t.trackingLog
	}

	log.Infof("reference: tracker initialised, unsynchronised")
	notifyReady()
	publishMetrics(&t.state)
	return nil
}

// Finalise implements §4.1's teardown sequence.
func (t *Tracker) Finalise() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.LeapApplied != 0 {
		if err := t.driver.SetLeap(0); err != nil {
			log.Warnf("reference: clearing pushed leap second: %v", err)
		}
	}
	if t.fbCancel != nil {
		t.fbCancel()
		t.fbCancel = nil
	}
	var err error
	if t.cfg.DriftFile != "" && t.state.DriftFileAge > 0 {
		err = WriteDriftFile(t.cfg.DriftFile, t.state.OurFrequency, t.state.Skew)
	}
	if t.trackingLog != nil {
		_ = t.trackingLog.Close()
	}
	return err
}

// SetReference implements §4.1/§4.6.
func (t *Tracker) SetReference(m Measurement) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode.mode != ModeNormal {
		action := t.mode.handle(true, m.Offset)
		return t.applyModeAction(action)
	}
	terminateMode, err := t.estimator.setReference(m)
	if err != nil {
		return err
	}
	if terminateMode {
		t.mode.end(false)
	}
	publishMetrics(&t.state)
	return nil
}

// SetManualReference implements §4.1's manual-reference shorthand.
func (t *Tracker) SetManualReference(refTime time.Time, offset, freq, skew float64) error {
	return t.SetReference(Measurement{
		Stratum:        0,
		Leap:           LeapUnsynchronised,
		CombinedSources: 1,
		RefID:          ManualRefID,
		RefIP:          nil,
		RefTime:        refTime,
		Offset:         offset,
		Frequency:      freq,
		Skew:           skew,
		RootDelay:      0,
		RootDispersion: 0,
	})
}

// SetUnsynchronised implements §4.1.
func (t *Tracker) SetUnsynchronised() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode.mode != ModeNormal {
		action := t.mode.handle(false, 0)
		return t.applyModeAction(action)
	}

	if t.fbDrift.enabled() {
		now, err := t.driver.Now()
		if err != nil {
			return err
		}
		if t.fbCancel != nil {
			t.fbCancel()
			t.fbCancel = nil
		}
		res := t.fbDrift.scheduleOnUnsync(now, t.state.LastRefUpdate)
		if res.ApplyNow != nil {
			if err := applyFBSlot(t.driver, res.ApplyNow); err != nil {
				log.Warnf("reference: applying fallback drift slot: %v", err)
			}
		}
		if res.ArmExponent >= 0 {
			t.armFallback(res.ArmExponent, res.ArmAt)
		}
	}

	t.state.LeapStatus = LeapUnsynchronised
	t.state.Synchronised = false

	if t.trackingLog != nil {
		row := formatTrackingRow(&t.state, t.state.OurFrequency, t.state.Skew*1e6, 0, LeapUnsynchronised, 0, 0, 0)
		_, _ = t.trackingLog.Write([]byte(row + "\n"))
	}
	publishMetrics(&t.state)
	return nil
}

// armFallback schedules the given exponent's fallback-drift slot to apply
// at armAt, re-arming the next level once fired.
func (t *Tracker) armFallback(exponent int, armAt time.Time) {
	t.fbCancel = t.sched.After(armAt, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i := range t.fbDrift.slots {
			if t.fbDrift.slots[i].exponent == exponent {
				if err := applyFBSlot(t.driver, &t.fbDrift.slots[i]); err != nil {
					log.Warnf("reference: applying fallback drift slot: %v", err)
				}
				t.fbDrift.nextFBDrift = exponent
				break
			}
		}
		now, err := t.driver.Now()
		if err != nil {
			return
		}
		res := t.fbDrift.scheduleOnUnsync(now, t.state.LastRefUpdate)
		if res.ArmExponent >= 0 {
			t.armFallback(res.ArmExponent, res.ArmAt)
		}
	})
	t.fbDrift.cancelArmed = t.fbCancel
}

// applyModeAction carries out what ModeMachine decided.
func (t *Tracker) applyModeAction(action modeAction) error {
	if action.Step {
		if err := t.driver.Step(time.Duration(action.StepOffset * float64(time.Second))); err != nil {
			return err
		}
	} else if action.StepOffset != 0 {
		if err := t.driver.AccumulateOffsetOnly(action.StepOffset, 0); err != nil {
			return err
		}
	}
	return nil
}

// GetReferenceParams implements §4.1.
func (t *Tracker) GetReferenceParams(localTime time.Time) ReferenceParams {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.referenceParamsLocked(localTime)
}

// GetOurStratum implements §4.1.
func (t *Tracker) GetOurStratum() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Synchronised {
		return t.state.Stratum
	}
	if t.cfg.AllowLocalReference {
		return t.cfg.LocalStratum
	}
	return 16
}

// GetTrackingReport implements §4.1.
func (t *Tracker) GetTrackingReport(localTime time.Time) TrackingReport {
	t.mu.Lock()
	params := t.referenceParamsLocked(localTime)
	correction := 0.0
	if d, err := t.driver.PendingCorrection(); err == nil {
		correction = d.Seconds()
	}
	report := TrackingReport{
		ReferenceParams:    params,
		RefIP:              t.state.RefIP,
		CurrentCorrection:  correction,
		FreqPPM:            t.state.OurFrequency,
		ResidFreqPPM:       t.state.ResidualFreq,
		SkewPPM:            t.state.Skew * 1e6,
		LastUpdateInterval: t.state.LastRefUpdateInterval,
		LastOffset:         t.state.LastOffset,
		RMSOffset:          math.Sqrt(math.Max(0, t.state.Avg2Offset)),
	}
	t.mu.Unlock()
	return report
}

// referenceParamsLocked is GetReferenceParams without acquiring the lock,
// for callers (like GetTrackingReport) that already hold it.
func (t *Tracker) referenceParamsLocked(localTime time.Time) ReferenceParams {
	if t.state.Synchronised {
		elapsed := localTime.Sub(t.state.RefTime).Seconds()
		return ReferenceParams{
			IsSynchronised: true,
			LeapStatus:     t.state.LeapStatus,
			Stratum:        t.state.Stratum,
			RefID:          t.state.RefID,
			RefTime:        t.state.RefTime,
			RootDelay:      t.state.RootDelay,
			RootDispersion: t.state.RootDispersion + (t.state.Skew+math.Abs(t.state.ResidualFreq)+t.cfg.ClockMaxError)*elapsed,
		}
	}
	if t.cfg.AllowLocalReference {
		return ReferenceParams{
			IsSynchronised: false,
			LeapStatus:     LeapNormal,
			Stratum:        t.cfg.LocalStratum,
			RefID:          LocalReferenceID,
			RefTime:        localTime.Add(-time.Second),
			RootDelay:      0,
			RootDispersion: t.cfg.ClockPrecisionQuantum,
		}
	}
	return ReferenceParams{
		IsSynchronised: false,
		LeapStatus:     LeapUnsynchronised,
		Stratum:        0,
		RootDelay:      1,
		RootDispersion: 1,
	}
}

// EnableLocal/DisableLocal/IsLocalActive implement §4.1's orphan-mode knobs.
func (t *Tracker) EnableLocal(stratum uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.AllowLocalReference = true
	t.cfg.LocalStratum = stratum
}

func (t *Tracker) DisableLocal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.AllowLocalReference = false
}

func (t *Tracker) IsLocalActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.AllowLocalReference && !t.state.Synchronised
}

// ModifyMaxupdateskew implements §4.1.
func (t *Tracker) ModifyMaxupdateskew(maxUpdateSkewPPM float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.MaxUpdateSkew = maxUpdateSkewPPM
}

// SetMode/GetMode/SetModeEndHandler implement §4.1/§4.7.
func (t *Tracker) SetMode(mode Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode.setMode(mode)
	notifyModeChange(mode)
}

func (t *Tracker) GetMode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode.mode
}

func (t *Tracker) SetModeEndHandler(fn func(result bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode.setEndHandler(fn)
}

// onDriverChange is the parameter-change listener registered with the
// driver at Initialise (§5 "External-slew reentrancy"). It must be
// idempotent and must not call back into the driver.
func (t *Tracker) onDriverChange(kind string, dfreq, doffset float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case "step":
		t.state.LastRefUpdate = time.Time{}
	default:
		if !t.state.LastRefUpdate.IsZero() {
			t.state.LastRefUpdate = t.state.LastRefUpdate.Add(time.Duration(doffset * float64(time.Second)))
		}
		t.state.OurFrequency += dfreq
	}
}
