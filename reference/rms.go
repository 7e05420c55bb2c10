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
	"math"

	"github.com/Knetic/govaluate"
	"github.com/eclesh/welford"
)

// offsetHistory keeps a short running window of recent signed offset and
// skew samples so the optional MaxOffsetExpr/StepThresholdExpr config fields
// (SPEC_FULL.md §6) have something to evaluate mean()/stddev() against.
// This does not replace avg2_offset (§3), which stays a plain EMA float as
// specified; it is purely in support of the supplemental expression gate.
const offsetHistorySize = 100

type offsetHistory struct {
	offsets []float64
	skews   []float64
}

func newOffsetHistory() *offsetHistory {
	return &offsetHistory{}
}

func (h *offsetHistory) push(offset, skew float64) {
	h.offsets = append(h.offsets, offset)
	if len(h.offsets) > offsetHistorySize {
		h.offsets = h.offsets[len(h.offsets)-offsetHistorySize:]
	}
	h.skews = append(h.skews, skew)
	if len(h.skews) > offsetHistorySize {
		h.skews = h.skews[len(h.skews)-offsetHistorySize:]
	}
}

func runningMean(input []float64) float64 {
	s := welford.New()
	for _, v := range input {
		s.Add(v)
	}
	return s.Mean()
}

func runningStddev(input []float64) float64 {
	s := welford.New()
	for _, v := range input {
		s.Add(v)
	}
	return s.Stddev()
}

var exprFunctions = map[string]govaluate.ExpressionFunction{
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs: wrong number of arguments: want 1, got %d", len(args))
		}
		return math.Abs(args[0].(float64)), nil
	},
	"mean": func(args ...interface{}) (interface{}, error) {
		vals, ok := args[0].([]float64)
		if !ok {
			return nil, fmt.Errorf("mean: argument must be a sample list")
		}
		return runningMean(vals), nil
	},
	"stddev": func(args ...interface{}) (interface{}, error) {
		vals, ok := args[0].([]float64)
		if !ok {
			return nil, fmt.Errorf("stddev: argument must be a sample list")
		}
		return runningStddev(vals), nil
	},
}

func prepareExpression(exprStr string) (*govaluate.EvaluableExpression, error) {
	return govaluate.NewEvaluableExpressionWithFunctions(exprStr, exprFunctions)
}

// evalBound evaluates a prepared expression against the current sample and
// history, returning the resulting bound. Parameters exposed to the
// expression: offset, skew, history_offset, history_skew.
func evalBound(expr *govaluate.EvaluableExpression, offset, skew float64, h *offsetHistory) (float64, error) {
	params := map[string]interface{}{
		"offset":         offset,
		"skew":           skew,
		"history_offset": h.offsets,
		"history_skew":   h.skews,
	}
	res, err := expr.Evaluate(params)
	if err != nil {
		return 0, err
	}
	f, ok := res.(float64)
	if !ok {
		return 0, fmt.Errorf("expression did not evaluate to a number")
	}
	return f, nil
}
