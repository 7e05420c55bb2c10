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
	"strconv"

	"github.com/go-ini/ini"
)

// ReadLegacyConfig parses a flat "name value" directive file — the shape
// real chrony.conf actually uses, rather than this module's own YAML form —
// into a Config. It reads every key from ini's implicit default section, so
// no section headers are required in the source file.
func ReadLegacyConfig(path string) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true, KeyValueDelimiters: " \t"}, path)
	if err != nil {
		return nil, err
	}
	sec := f.Section("")
	c := DefaultConfig()

	c.DriftFile = sec.Key("driftfile").String()
	c.LeapTzname = sec.Key("leapsectz").String()
	c.MailChangeUser = sec.Key("mailonchange").MustString(c.MailChangeUser)
	c.TrackingLog = sec.Key("logdir").String()

	if v, err := sec.Key("maxupdateskew").Float64(); err == nil {
		c.MaxUpdateSkew = v
	}
	if v, err := sec.Key("corrtimeratio").Float64(); err == nil {
		c.CorrectionTimeRatio = v
	}
	if v, err := sec.Key("maxoffset").Float64(); err == nil {
		c.MaxOffset = v
	}
	if v, err := sec.Key("maxoffsetdelay").Int(); err == nil {
		c.MaxOffsetDelay = v
	}
	if v, err := sec.Key("maxoffsetignore").Int(); err == nil {
		c.MaxOffsetIgnore = v
	}
	if v, err := sec.Key("initstepslew_threshold").Float64(); err == nil {
		c.InitStepThreshold = v
	}
	if v, err := sec.Key("fallbackdrift").Strings(" "); err == nil && len(v) == 2 {
		if lo, err := strconv.Atoi(v[0]); err == nil {
			c.FBDriftMin = lo
		}
		if hi, err := strconv.Atoi(v[1]); err == nil {
			c.FBDriftMax = hi
		}
	}
	if sec.HasKey("local") {
		c.AllowLocalReference = sec.Key("local").MustBool(false)
	}
	if v, err := sec.Key("local_stratum").Int(); err == nil {
		c.LocalStratum = uint8(v)
	}

	if v, err := sec.Key("makestep_limit").Int(); err == nil {
		c.MakeStepLimit = v
	}
	if v, err := sec.Key("makestep_threshold").Float64(); err == nil {
		c.MakeStepThreshold = v
	}

	return &c, nil
}
