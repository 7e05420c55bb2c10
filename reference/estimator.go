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
	"time"

	log "github.com/sirupsen/logrus"
)

// estimator runs the §4.6 SetReference fusion procedure against a shared
// State. Like PiServo, it carries no exported surface of its own; callers
// reach it through TrackerFacade.
type estimator struct {
	cfg     *Config
	state   *State
	driver  LocalClock
	sanity  *sanityGate
	leap    *leapOracle
	fbDrift *fallbackDrift

	trackingLog io.Writer
}

// setReference implements §4.6 steps 2-18. Step 1 (mode delegation) is the
// caller's responsibility since it also owns the ModeMachine and the driver
// push that results from it. terminateMode reports whether §4.5's
// max_offset_ignore==0 gate rejected the sample and the caller must end the
// current mode with failure (§8 scenario S4); it is only ever true when the
// sample was rejected (err == nil in that case either way).
func (e *estimator) setReference(m Measurement) (terminateMode bool, err error) {
	skew := math.Max(m.Skew, MinSkew)
	if !skewValid(skew) {
		log.Warnf("reference: rejecting measurement with invalid skew %v", m.Skew)
		return false, nil
	}

	raw, err := e.driver.Now()
	if err != nil {
		return false, err
	}
	uncorrectedDur, err := e.driver.PendingCorrection()
	if err != nil {
		return false, err
	}
	uncorrected := uncorrectedDur.Seconds()
	now := raw.Add(uncorrectedDur)

	ourOffset := m.Offset + now.Sub(m.RefTime).Seconds()*m.Frequency

	gate := e.sanity.offsetOK(ourOffset, skew)
	if !gate.Accept {
		return gate.TerminateMode, nil
	}

	wasSynchronised := e.state.Synchronised
	e.state.Synchronised = true
	e.state.Stratum = m.Stratum + 1
	e.state.RefID = m.RefID
	e.state.RefIP = m.RefIP
	e.state.RefTime = m.RefTime
	e.state.RootDelay = m.RootDelay
	e.state.RootDispersion = m.RootDispersion

	updateInterval := 0.0
	if !e.state.LastRefUpdate.IsZero() {
		updateInterval = math.Max(0, now.Sub(e.state.LastRefUpdate).Seconds())
	}
	e.state.LastRefUpdate = now

	correctionRate := e.cfg.CorrectionTimeRatio * 0.5 * m.OffsetSD * updateInterval

	step := 0.0
	accumulate := ourOffset
	if e.sanity.stepDecision(ourOffset, uncorrected, skew) {
		accumulate = uncorrected
		step = ourOffset - uncorrected
	}

	residualFreq := m.Frequency
	if skew < e.cfg.MaxUpdateSkew*1e-6 || m.Leap == LeapUnsynchronised {
		old := e.state.Skew
		wOld := 0.0
		if wasSynchronised {
			wOld = 1 / (old * old)
		}
		wNew := 3 / (skew * skew)
		sumW := wOld + wNew

		freqDelta := (0*wOld + m.Frequency*wNew) / sumW
		e.state.Skew = math.Sqrt((0*0*wOld+m.Frequency*m.Frequency*wNew)/sumW) + (old*wOld+skew*wNew)/sumW
		e.state.OurFrequency += freqDelta
		residualFreq = m.Frequency - freqDelta

		if err := e.driver.AccumulateOffsetAndFrequency(freqDelta, accumulate, correctionRate); err != nil {
			return false, err
		}
	} else {
		residualFreq = m.Frequency
		if err := e.driver.AccumulateOffsetOnly(accumulate, correctionRate); err != nil {
			return false, err
		}
	}
	e.state.ResidualFreq = residualFreq

	leapStatus, leapApplied := e.leap.resolve(m.Leap, now)
	e.state.LeapStatus = leapStatus
	if err := e.leap.apply(e.driver, leapApplied); err != nil {
		log.Warnf("reference: %v", err)
	}
	e.state.LeapApplied = leapApplied

	e.cfg.notifyChange(ourOffset, now)

	if step != 0 {
		if err := e.driver.Step(time.Duration(step * float64(time.Second))); err != nil {
			return false, err
		}
		log.Warnf("reference: stepped clock by %.6g seconds", step)
	}

	if e.trackingLog != nil {
		row := formatTrackingRow(e.state, e.state.OurFrequency, e.state.Skew*1e6, ourOffset, leapStatus, m.CombinedSources, m.OffsetSD, uncorrected)
		_, _ = e.trackingLog.Write([]byte(row + "\n"))
	}

	e.state.DriftFileAge += updateInterval
	if e.state.DriftFileAge < 0 || e.state.DriftFileAge > driftFileRotationInterval {
		if err := WriteDriftFile(e.cfg.DriftFile, e.state.OurFrequency, e.state.Skew); err != nil {
			log.Warnf("reference: drift file rotation failed: %v", err)
		}
		e.state.DriftFileAge = 0
	}

	if e.fbDrift.enabled() {
		e.fbDrift.update(e.state.OurFrequency, updateInterval, e.state.LastRefUpdateInterval)
	}

	e.state.LastRefUpdateInterval = updateInterval
	e.state.LastOffset = ourOffset

	sq := ourOffset * ourOffset
	if e.state.Avg2Moving {
		e.state.Avg2Offset += avg2EMACoefficient * (sq - e.state.Avg2Offset)
	} else {
		if e.state.Avg2Offset > 0 && e.state.Avg2Offset < sq {
			e.state.Avg2Moving = true
		}
		e.state.Avg2Offset = sq
	}

	return false, nil
}
