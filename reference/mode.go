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

import log "github.com/sirupsen/logrus"

// modeMachine implements §4.7: the operating-mode state machine and its
// one-shot terminator callback.
type modeMachine struct {
	mode              Mode
	initStepThreshold float64
	endHandler        func(result bool)
}

func newModeMachine(initStepThreshold float64) *modeMachine {
	return &modeMachine{mode: ModeNormal, initStepThreshold: initStepThreshold}
}

func (m *modeMachine) setMode(mode Mode) {
	m.mode = mode
}

func (m *modeMachine) setEndHandler(fn func(result bool)) {
	m.endHandler = fn
}

func (m *modeMachine) end(result bool) {
	m.mode = ModeIgnore
	notifyModeChange(m.mode)
	if m.endHandler != nil {
		m.endHandler(result)
	}
}

// modeAction is what the driver should do in response to a delegated
// measurement.
type modeAction struct {
	Step       bool
	StepOffset float64
	Log        bool
}

// handle delegates a measurement to the current non-Normal mode, per §4.7.
// Callers (SetReference, SetUnsynchronised) only invoke this when
// mode != ModeNormal.
func (m *modeMachine) handle(valid bool, offset float64) modeAction {
	switch m.mode {
	case ModeInitStepSlew:
		if !valid {
			log.Warnf("reference: InitStepSlew received invalid measurement")
			m.end(false)
			return modeAction{}
		}
		step := offset >= m.initStepThreshold || offset <= -m.initStepThreshold
		if step {
			log.Infof("reference: InitStepSlew stepping by %.6g", offset)
		} else {
			log.Infof("reference: InitStepSlew slewing by %.6g", offset)
		}
		m.end(true)
		return modeAction{Step: step, StepOffset: offset}

	case ModeUpdateOnce:
		if !valid {
			m.end(false)
			return modeAction{}
		}
		m.end(true)
		return modeAction{Step: true, StepOffset: offset}

	case ModePrintOnce:
		if !valid {
			m.end(false)
			return modeAction{}
		}
		log.Infof("reference: PrintOnce offset %.6g", offset)
		m.end(true)
		return modeAction{Log: true}

	case ModeIgnore:
		return modeAction{}

	default:
		return modeAction{}
	}
}
