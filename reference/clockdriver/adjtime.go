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

// Package clockdriver provides a default reference.LocalClock backed by the
// Linux CLOCK_ADJTIME syscall. §1 treats the local clock driver as an
// out-of-scope external collaborator referenced only by interface, but a
// runnable repo needs at least one concrete implementation.
package clockdriver

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ppbToTimexPPM converts PPB to the 16-bit-fractional PPM unit
// clock_adjtime's struct timex uses for Freq/Tolerance (man clock_adjtime(2)).
const ppbToTimexPPM = 65.536

// clock_adjtime modes, from linux/timex.h.
const (
	adjOffset    uint32 = 0x0001
	adjFrequency uint32 = 0x0002
	adjStatus    uint32 = 0x0010
	adjSetOffset uint32 = 0x0100
	adjNano      uint32 = 0x2000
)

func adjtime(clockid int32, buf *unix.Timex) (state int, err error) {
	r0, _, errno := unix.Syscall(unix.SYS_CLOCK_ADJTIME, uintptr(clockid), uintptr(unsafe.Pointer(buf)), 0)
	state = int(r0)
	if errno != 0 {
		err = errno
	}
	return state, err
}

// AdjtimeClock is a reference.LocalClock implementation for a single Linux
// clock id (typically unix.CLOCK_REALTIME).
//
// The teacher's clock package is stateless (each call is an independent
// syscall); this wrapper additionally tracks "pending correction", which
// reference.LocalClock's contract (driven by §4.6 step 3) requires a driver
// to report back, and records the last leap second pushed via SetLeap
// (§4.4). The recorded leap value is not reported back through any method.
type AdjtimeClock struct {
	clockID int32

	mu                sync.Mutex
	pendingCorrection time.Duration
	appliedLeap       int8
	listener          func(kind string, dfreq, doffset float64)
}

// New returns an AdjtimeClock for clockID (e.g. unix.CLOCK_REALTIME).
func New(clockID int32) *AdjtimeClock {
	return &AdjtimeClock{clockID: clockID}
}

// Now returns the wall-clock time; CLOCK_ADJTIME does not itself report
// time, so this uses time.Now() for CLOCK_REALTIME and is only meaningful
// when clockID is CLOCK_REALTIME.
func (c *AdjtimeClock) Now() (time.Time, error) {
	return time.Now(), nil
}

// PendingCorrection returns the last offset correction handed to
// AccumulateOffsetAndFrequency/AccumulateOffsetOnly that the driver has not
// yet reported as fully applied. This tracker treats slews as instantaneous
// bookkeeping (the real kernel PLL drains it gradually); callers that need
// exact kernel-reported remaining correction should extend this with an
// ADJ_OFFSET readback.
func (c *AdjtimeClock) PendingCorrection() (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingCorrection, nil
}

// AccumulateOffsetAndFrequency adjusts the clock frequency by freqDeltaPPM
// and records offsetSeconds as the new pending correction.
func (c *AdjtimeClock) AccumulateOffsetAndFrequency(freqDeltaPPM, offsetSeconds, _ float64) error {
	cur, err := c.Frequency()
	if err != nil {
		return err
	}
	if err := c.SetFrequency(cur + freqDeltaPPM); err != nil {
		return err
	}
	c.mu.Lock()
	c.pendingCorrection = time.Duration(offsetSeconds * float64(time.Second))
	c.mu.Unlock()
	return nil
}

// AccumulateOffsetOnly records offsetSeconds as the new pending correction
// without touching frequency.
func (c *AdjtimeClock) AccumulateOffsetOnly(offsetSeconds, _ float64) error {
	c.mu.Lock()
	c.pendingCorrection = time.Duration(offsetSeconds * float64(time.Second))
	c.mu.Unlock()
	return nil
}

// SetFrequency sets the driver's absolute frequency outright, in ppm.
func (c *AdjtimeClock) SetFrequency(freqPPM float64) error {
	tx := &unix.Timex{}
	tx.Freq = int64(freqPPM * ppbToTimexPPM * 1000) // ppm -> ppb -> timex units
	tx.Modes = adjFrequency
	_, err := adjtime(c.clockID, tx)
	if err != nil {
		return fmt.Errorf("clockdriver: AdjFreqPPB: %w", err)
	}
	return nil
}

// Frequency reads the driver's current absolute frequency in ppm.
func (c *AdjtimeClock) Frequency() (float64, error) {
	tx := &unix.Timex{}
	_, err := adjtime(c.clockID, tx)
	if err != nil {
		return 0, fmt.Errorf("clockdriver: FrequencyPPB: %w", err)
	}
	return float64(tx.Freq) / (ppbToTimexPPM * 1000), nil
}

// Step cancels any pending offset correction and jumps the clock
// immediately.
func (c *AdjtimeClock) Step(step time.Duration) error {
	sign := int64(1)
	if step < 0 {
		sign = -1
		step = -step
	}
	tx := &unix.Timex{}
	tx.Modes = adjSetOffset | adjNano
	tx.Time.Sec = sign * int64(step/time.Second)
	tx.Time.Usec = sign * int64(step%time.Second)
	if tx.Time.Usec < 0 {
		tx.Time.Sec--
		tx.Time.Usec += 1000000000
	}
	if _, err := adjtime(c.clockID, tx); err != nil {
		return fmt.Errorf("clockdriver: Step: %w", err)
	}
	c.mu.Lock()
	c.pendingCorrection = 0
	c.mu.Unlock()
	return nil
}

// SetLeap pushes a pending leap-second insertion/deletion to the kernel via
// STA_INS/STA_DEL, or clears it when leapSecond is 0.
func (c *AdjtimeClock) SetLeap(leapSecond int8) error {
	tx := &unix.Timex{}
	tx.Modes = adjStatus
	switch leapSecond {
	case 1:
		tx.Status = unix.STA_INS
	case -1:
		tx.Status = unix.STA_DEL
	default:
		tx.Status = 0
	}
	if _, err := adjtime(c.clockID, tx); err != nil {
		return fmt.Errorf("clockdriver: SetLeap: %w", err)
	}
	c.mu.Lock()
	c.appliedLeap = leapSecond
	c.mu.Unlock()
	return nil
}

// SetListener registers the external-parameter-change callback. This
// driver never fires it on its own (it has no way to distinguish its own
// writes from a concurrent external adjtime caller without a netlink
// clock-change subscription); it is provided so callers wiring in a richer
// driver have somewhere to plug one in, per §5's reentrancy contract.
func (c *AdjtimeClock) SetListener(fn func(kind string, dfreq, doffset float64)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}
