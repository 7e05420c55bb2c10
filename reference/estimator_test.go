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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestEstimator(cfg *Config, driver LocalClock) *estimator {
	return &estimator{
		cfg:     cfg,
		state:   &State{Skew: MinSkew},
		driver:  driver,
		sanity:  newSanityGate(cfg),
		leap:    newLeapOracle(""),
		fbDrift: newFallbackDrift(cfg.FBDriftMin, cfg.FBDriftMax),
	}
}

// S1 — fresh sync.
func TestSetReferenceFreshSync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	driver := NewMockLocalClock(ctrl)

	now := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	driver.EXPECT().Now().Return(now, nil)
	driver.EXPECT().PendingCorrection().Return(time.Duration(0), nil)
	driver.EXPECT().AccumulateOffsetAndFrequency(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	cfg := DefaultConfig()
	cfg.MaxUpdateSkew = 1.0
	e := newTestEstimator(&cfg, driver)

	_, err := e.setReference(Measurement{
		Stratum:         1,
		Leap:            LeapNormal,
		CombinedSources: 1,
		RefID:           0x01020304,
		RefTime:         t0,
		Offset:          0.010,
		OffsetSD:        0.001,
		Frequency:       0.0,
		Skew:            1e-7,
		RootDelay:       0.05,
		RootDispersion:  0.05,
	})
	require.NoError(t, err)
	require.True(t, e.state.Synchronised)
	require.EqualValues(t, 2, e.state.Stratum)
	require.Equal(t, LeapNormal, e.state.LeapStatus)
	require.InDelta(t, 0.010, e.state.LastOffset, 1e-9)
}

// S2 — step, then slew once the step limit is exhausted.
func TestSetReferenceStepThenSlew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	driver := NewMockLocalClock(ctrl)

	cfg := DefaultConfig()
	cfg.MakeStepThreshold = 0.1
	cfg.MakeStepLimit = 1
	cfg.MaxUpdateSkew = 1.0
	e := newTestEstimator(&cfg, driver)

	now := time.Now()
	driver.EXPECT().Now().Return(now, nil).Times(2)
	driver.EXPECT().PendingCorrection().Return(time.Duration(0), nil).Times(2)
	driver.EXPECT().AccumulateOffsetAndFrequency(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	driver.EXPECT().Step(gomock.Any()).Return(nil).Times(1)

	m := Measurement{Stratum: 1, Leap: LeapNormal, RefTime: now, Offset: 1.0, Skew: 1e-7}
	_, err := e.setReference(m)
	require.NoError(t, err)
	require.EqualValues(t, 0, e.sanity.makeStepLimit)

	m.RefTime = now
	_, err = e.setReference(m)
	require.NoError(t, err)
	require.EqualValues(t, 0, e.sanity.makeStepLimit)
}

// S3 — NaN skew is rejected without touching the driver.
func TestSetReferenceNaNSkew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	driver := NewMockLocalClock(ctrl)

	cfg := DefaultConfig()
	e := newTestEstimator(&cfg, driver)

	_, err := e.setReference(Measurement{Stratum: 1, Leap: LeapNormal, Skew: math.NaN()})
	require.NoError(t, err)
	require.False(t, e.state.Synchronised)
}

// S4 — offset beyond max_offset with max_offset_ignore=0 rejects the sample
// and reports that the caller must end the current mode with failure.
func TestSetReferenceMaxOffsetRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	driver := NewMockLocalClock(ctrl)

	driver.EXPECT().Now().Return(time.Now(), nil)
	driver.EXPECT().PendingCorrection().Return(time.Duration(0), nil)

	cfg := DefaultConfig()
	cfg.MaxOffset = 0.5
	cfg.MaxOffsetIgnore = 0
	cfg.MaxOffsetDelay = 0
	e := newTestEstimator(&cfg, driver)

	terminateMode, err := e.setReference(Measurement{Stratum: 1, Leap: LeapNormal, Offset: 2.0, Skew: 1e-7, RefTime: time.Now()})
	require.NoError(t, err)
	require.True(t, terminateMode)
	require.False(t, e.state.Synchronised)
}

// S5 — leap day.
func TestSetReferenceLeapDayRestriction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	driver := NewMockLocalClock(ctrl)

	cfg := DefaultConfig()
	cfg.MaxUpdateSkew = 1.0
	e := newTestEstimator(&cfg, driver)

	now := time.Date(2016, 1, 15, 12, 0, 0, 0, time.UTC)
	driver.EXPECT().Now().Return(now, nil)
	driver.EXPECT().PendingCorrection().Return(time.Duration(0), nil)
	driver.EXPECT().AccumulateOffsetAndFrequency(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := e.setReference(Measurement{Stratum: 1, Leap: LeapInsertSecond, RefTime: now, Skew: 1e-7})
	require.NoError(t, err)
	require.Equal(t, LeapNormal, e.state.LeapStatus)
	require.EqualValues(t, 0, e.state.LeapApplied)
}

func TestSetReferenceTooNoisyPushesOffsetOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	driver := NewMockLocalClock(ctrl)

	now := time.Now()
	driver.EXPECT().Now().Return(now, nil)
	driver.EXPECT().PendingCorrection().Return(time.Duration(0), nil)
	driver.EXPECT().AccumulateOffsetOnly(gomock.Any(), gomock.Any()).Return(nil)

	cfg := DefaultConfig()
	cfg.MaxUpdateSkew = 1e-9 // skew below this threshold is required to fuse frequency
	e := newTestEstimator(&cfg, driver)

	_, err := e.setReference(Measurement{Stratum: 1, Leap: LeapNormal, RefTime: now, Skew: 1e-6, Frequency: 2.0})
	require.NoError(t, err)
	require.Equal(t, 2.0, e.state.ResidualFreq)
}
