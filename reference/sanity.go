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

	log "github.com/sirupsen/logrus"

	"github.com/Knetic/govaluate"
)

// sanityGate implements the three policies of §4.5. It is stateful (the
// warm-up/ignore counters persist across calls), mirroring the shape of
// servo.PiServoFilter's stateful accept/reject counters.
type sanityGate struct {
	cfg *Config

	maxOffsetDelay  int
	maxOffsetIgnore int
	makeStepLimit   int

	maxOffsetExpr     *govaluate.EvaluableExpression
	stepThresholdExpr *govaluate.EvaluableExpression
	history           *offsetHistory
}

func newSanityGate(cfg *Config) *sanityGate {
	g := &sanityGate{
		cfg:             cfg,
		maxOffsetDelay:  cfg.MaxOffsetDelay,
		maxOffsetIgnore: cfg.MaxOffsetIgnore,
		makeStepLimit:   cfg.MakeStepLimit,
		history:         newOffsetHistory(),
	}
	if cfg.MaxOffsetExpr != "" {
		g.maxOffsetExpr, _ = prepareExpression(cfg.MaxOffsetExpr) // validated in Config.Validate
	}
	if cfg.StepThresholdExpr != "" {
		g.stepThresholdExpr, _ = prepareExpression(cfg.StepThresholdExpr)
	}
	return g
}

// skewValid is the NaN/Inf probe of §4.5 and §9: rather than the arithmetic
// (skew+skew)/skew ∈ [1.9,2.1] trick, use the language's own finite-number
// predicate.
func skewValid(skew float64) bool {
	return !math.IsNaN(skew) && !math.IsInf(skew, 0)
}

// offsetOKResult is what offsetOK returns: whether to accept the sample,
// and whether the current mode should be terminated with failure (the
// max_offset_ignore == 0 branch of §4.5).
type offsetOKResult struct {
	Accept         bool
	TerminateMode  bool
}

// offsetOK implements the max_offset gate of §4.5.
func (g *sanityGate) offsetOK(offset, skew float64) offsetOKResult {
	g.history.push(offset, skew)

	if g.maxOffsetDelay < 0 {
		return offsetOKResult{Accept: true}
	}
	if g.maxOffsetDelay > 0 {
		g.maxOffsetDelay--
		return offsetOKResult{Accept: true}
	}

	bound := g.cfg.MaxOffset
	if g.maxOffsetExpr != nil {
		if b, err := evalBound(g.maxOffsetExpr, offset, skew, g.history); err == nil {
			if bound == 0 || b < bound {
				bound = b
			}
		} else {
			log.Warnf("reference: max_offset_expr evaluation failed: %v", err)
		}
	}

	if math.Abs(offset) <= bound {
		return offsetOKResult{Accept: true}
	}

	log.Warnf("reference: offset %.6g exceeds max_offset %.6g, rejecting sample", offset, bound)
	switch {
	case g.maxOffsetIgnore == 0:
		return offsetOKResult{Accept: false, TerminateMode: true}
	case g.maxOffsetIgnore > 0:
		g.maxOffsetIgnore--
		return offsetOKResult{Accept: false}
	default: // < 0: ignore unconditionally
		return offsetOKResult{Accept: false}
	}
}

// stepDecision implements the make_step_limit/make_step_threshold policy
// of §4.5. It returns whether this sample should be stepped.
//
// Open question (spec.md §9, resolved as "implement as specified"): once
// make_step_limit reaches 0 the gate never steps again, even if
// make_step_threshold keeps being exceeded; large offsets are slewed from
// then on.
func (g *sanityGate) stepDecision(offset, uncorrected, skew float64) bool {
	if g.makeStepLimit == 0 {
		return false
	}

	threshold := g.cfg.MakeStepThreshold
	if g.stepThresholdExpr != nil {
		if b, err := evalBound(g.stepThresholdExpr, offset, skew, g.history); err == nil {
			if threshold == 0 || b < threshold {
				threshold = b
			}
		} else {
			log.Warnf("reference: step_threshold_expr evaluation failed: %v", err)
		}
	}

	if g.makeStepLimit > 0 {
		g.makeStepLimit--
	}
	// < 0: unlimited, no decrement
	return math.Abs(offset-uncorrected) > threshold
}
