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

// Scheduler is the out-of-scope "scheduler" (SCH) collaborator of §1: it
// provides one-shot timeouts. The tracker keeps at most one outstanding
// timeout at a time (the fallback-drift arm/apply timer of §4.3) and always
// cancels it before scheduling a new one.
type Scheduler interface {
	// After arms fn to run once at t. The returned cancel func is
	// idempotent; calling it after fn has already fired is a no-op.
	After(t time.Time, fn func()) (cancel func())
}
