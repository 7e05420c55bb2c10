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

// Package scheduler provides a default, cancellable one-shot timer
// implementation of reference.Scheduler, built around an errgroup-owned
// background goroutine the way fbclock/daemon.Daemon owns its polling
// loop's goroutine.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// TimerQueue runs each scheduled callback on its own errgroup goroutine,
// all joined on Close. Safe for concurrent use, though the tracker's own contract (§5)
// only ever has one timeout outstanding at a time.
type TimerQueue struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New starts a TimerQueue.
func New() *TimerQueue {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	return &TimerQueue{ctx: ctx, cancel: cancel, group: g}
}

// After arms fn to run once at t, on a goroutine started for this timer in
// the queue's errgroup. The returned
// cancel function stops the timer; calling it after fn has fired is a
// harmless no-op.
func (q *TimerQueue) After(t time.Time, fn func()) (cancelFn func()) {
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	done := make(chan struct{})
	ctx := q.ctx

	q.group.Go(func() error {
		select {
		case <-timer.C:
			fn()
		case <-ctx.Done():
			timer.Stop()
		case <-done:
			timer.Stop()
		}
		return nil
	})

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Close cancels all outstanding timers and waits for the goroutine(s) to
// exit.
func (q *TimerQueue) Close() error {
	q.cancel()
	return q.group.Wait()
}
