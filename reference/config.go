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
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config carries every tunable read once at Initialise (§3 "Configuration").
type Config struct {
	DriftFile string `yaml:"drift_file"`

	MaxUpdateSkew       float64 `yaml:"max_update_skew"`
	CorrectionTimeRatio float64 `yaml:"correction_time_ratio"`

	MakeStepLimit     int     `yaml:"make_step_limit"`
	MakeStepThreshold float64 `yaml:"make_step_threshold"`

	MaxOffsetDelay  int     `yaml:"max_offset_delay"`
	MaxOffsetIgnore int     `yaml:"max_offset_ignore"`
	MaxOffset       float64 `yaml:"max_offset"`

	DoLogChange       bool    `yaml:"do_log_change"`
	LogChangeThreshold float64 `yaml:"log_change_threshold"`

	DoMailChange        bool    `yaml:"do_mail_change"`
	MailChangeThreshold float64 `yaml:"mail_change_threshold"`
	MailChangeUser      string  `yaml:"mail_change_user"`

	FBDriftMin int `yaml:"fb_drift_min"`
	FBDriftMax int `yaml:"fb_drift_max"`

	LeapTzname string `yaml:"leap_tzname"`

	InitStepThreshold float64 `yaml:"init_step_threshold"`

	AllowLocalReference bool  `yaml:"allow_local_reference"`
	LocalStratum        uint8 `yaml:"local_stratum"`

	LogTracking bool   `yaml:"log_tracking"`
	TrackingLog string `yaml:"tracking_log_file"`

	// MaxOffsetExpr/StepThresholdExpr are a SPEC_FULL.md supplement: an
	// optional govaluate expression that can only tighten (never loosen)
	// a nonzero static MaxOffset/MakeStepThreshold gate above; when the
	// static value is 0 the expression's result is used as the bound
	// as is. See rms.go.
	MaxOffsetExpr       string `yaml:"max_offset_expr"`
	StepThresholdExpr   string `yaml:"step_threshold_expr"`

	// ClockMaxError and ClockPrecisionQuantum are parameters the local
	// clock driver would otherwise supply; kept here since §4.1's
	// GetReferenceParams formula needs them and this tracker has no other
	// channel to learn them from in this module's scope.
	ClockMaxError         float64 `yaml:"clock_max_error"`
	ClockPrecisionQuantum float64 `yaml:"clock_precision_quantum"`
}

// DefaultConfig mirrors chrony's own defaults for the handful of tunables
// that have a sane zero-value-isn't-it default.
func DefaultConfig() Config {
	return Config{
		CorrectionTimeRatio: 3.0,
		MaxOffsetDelay:      -1,
		MaxOffsetIgnore:     -1,
		FBDriftMin:          2,
		FBDriftMax:          0, // disabled unless explicitly configured
	}
}

// Validate rejects impossible tunable combinations before Initialise runs,
// the same shape as fbclock/daemon's Config.EvalAndValidate.
func (c *Config) Validate() error {
	if c.MaxUpdateSkew < 0 {
		return fmt.Errorf("bad config: 'max_update_skew' must be >= 0")
	}
	if c.FBDriftMax > 0 && c.FBDriftMin > c.FBDriftMax {
		return fmt.Errorf("bad config: 'fb_drift_min' must be <= 'fb_drift_max'")
	}
	if c.AllowLocalReference && c.LocalStratum == 0 {
		return fmt.Errorf("bad config: 'local_stratum' must be >0 when 'allow_local_reference' is set")
	}
	if c.MaxOffsetExpr != "" {
		if _, err := prepareExpression(c.MaxOffsetExpr); err != nil {
			return fmt.Errorf("bad config: 'max_offset_expr': %w", err)
		}
	}
	if c.StepThresholdExpr != "" {
		if _, err := prepareExpression(c.StepThresholdExpr); err != nil {
			return fmt.Errorf("bad config: 'step_threshold_expr': %w", err)
		}
	}
	return nil
}

// ReadConfig reads config and unmarshals it from yaml into Config,
// following fbclock/daemon.ReadConfig.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
