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
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/timesync/reftracker/reference/leaptab"
)

// defaultZoneinfoRightDir is where production builds find the "right/"
// (leap-second-aware) timezone database. Tests override it via
// newLeapOracleInDir so they can point at a small hand-built fixture instead
// of the host's real zoneinfo install.
const defaultZoneinfoRightDir = "/usr/share/zoneinfo/right/"

// leapOracle determines the leap indicator and the value that should be
// pushed to the local clock driver (§4.4). It caches its timezone-database
// lookup for tzRecheckInterval.
type leapOracle struct {
	tzname      string
	zoneinfoDir string
	tzPath      string // path to the "right/"-variant tzdata file for tzname
	enabled     bool

	cacheKey    int64
	cacheInsert bool
	cacheDelete bool
	cacheValid  bool

	lastApplied int8
}

func newLeapOracle(tzname string) *leapOracle {
	return newLeapOracleInDir(tzname, defaultZoneinfoRightDir)
}

// newLeapOracleInDir is newLeapOracle with the zoneinfo directory prefix
// overridden, for tests that supply a fixture TZif file instead of reading
// the host's real "right/" database.
func newLeapOracleInDir(tzname, dir string) *leapOracle {
	o := &leapOracle{tzname: tzname, zoneinfoDir: dir}
	if tzname != "" {
		o.tzPath = dir + tzname
	}
	return o
}

// validate runs the §4.1 init-time self check: the table must report
// Normal at 2008-06-30T00:00:00Z and InsertSecond at 2008-12-31T00:00:00Z.
// It disables the oracle (falls back to trusting the source's own leap
// indicator) if the check fails, logging a warning.
func (o *leapOracle) validate() {
	if o.tzPath == "" {
		o.enabled = false
		return
	}
	checkNormal := time.Date(2008, time.June, 30, 0, 0, 0, 0, time.UTC)
	checkInsert := time.Date(2008, time.December, 31, 0, 0, 0, 0, time.UTC)

	insert, del, err := leaptab.IsLeapDay(o.tzPath, checkNormal)
	if err != nil || insert || del {
		log.Warnf("reference: leap_tzname %q failed validation (normal-day probe): %v", o.tzname, err)
		o.enabled = false
		return
	}
	insert, _, err = leaptab.IsLeapDay(o.tzPath, checkInsert)
	if err != nil || !insert {
		log.Warnf("reference: leap_tzname %q failed validation (insert-day probe): %v", o.tzname, err)
		o.enabled = false
		return
	}
	o.enabled = true
}

// isRestrictedDay reports whether day is the last day of June or December
// in UTC — the only days §4.4 permits insertion/deletion on.
func isRestrictedDay(day time.Time) bool {
	day = day.UTC()
	switch day.Month() {
	case time.June:
		return day.Day() == 30
	case time.December:
		return day.Day() == 31
	default:
		return false
	}
}

// resolve computes (leapStatus, leapApplied) for a measurement reporting
// sourceLeap at now (§4.4). leapApplied is -1/0/+1.
func (o *leapOracle) resolve(sourceLeap Leap, now time.Time) (Leap, int8) {
	if sourceLeap == LeapUnsynchronised {
		return LeapUnsynchronised, 0
	}
	if sourceLeap != LeapNormal || !o.enabled {
		if !isRestrictedDay(now) {
			return LeapNormal, 0
		}
		switch sourceLeap {
		case LeapInsertSecond:
			return LeapInsertSecond, 1
		case LeapDeleteSecond:
			return LeapDeleteSecond, -1
		default:
			return LeapNormal, 0
		}
	}

	key := now.Unix() / int64(tzRecheckInterval/time.Second)
	if !o.cacheValid || key != o.cacheKey {
		insert, del, err := leaptab.IsLeapDay(o.tzPath, now)
		if err != nil {
			log.Warnf("reference: leap_tzname %q lookup failed: %v", o.tzname, err)
			o.enabled = false
			return LeapNormal, 0
		}
		o.cacheInsert, o.cacheDelete = insert, del
		o.cacheKey = key
		o.cacheValid = true
	}

	if !isRestrictedDay(now) {
		return LeapNormal, 0
	}
	switch {
	case o.cacheInsert:
		return LeapInsertSecond, 1
	case o.cacheDelete:
		return LeapDeleteSecond, -1
	default:
		return LeapNormal, 0
	}
}

// apply pushes leapApplied to driver if it differs from the last value
// pushed, per §4.4's "push only on change" rule.
func (o *leapOracle) apply(driver LocalClock, leapApplied int8) error {
	if leapApplied == o.lastApplied {
		return nil
	}
	if err := driver.SetLeap(leapApplied); err != nil {
		return fmt.Errorf("pushing leap second %d to local clock: %w", leapApplied, err)
	}
	o.lastApplied = leapApplied
	return nil
}
