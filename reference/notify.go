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
	"os"
	"os/exec"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

// notifyChange implements §4.8: syslog-style warning above
// log_change_threshold, and a mailed notice above mail_change_threshold.
func (c *Config) notifyChange(offset float64, localTime time.Time) {
	abs := math.Abs(offset)

	if c.DoLogChange && abs > math.Abs(c.LogChangeThreshold) {
		line := fmt.Sprintf("reference: system clock wrong by %.6g seconds, adjusting", offset)
		log.Warn(line)
		if color.NoColor == false { //nolint:gosimple // explicit for readability against color's sentinel
			color.New(color.FgYellow).Fprintln(os.Stderr, line)
		}
	}

	if c.DoMailChange && abs > c.MailChangeThreshold {
		if err := mailChange(c.MailChangeUser, offset, localTime); err != nil {
			log.Warnf("reference: mail notification failed: %v", err)
		}
	}
}

// mailChange spawns MAIL_PROGRAM <user> and writes the fixed-format message
// of §4.8.
func mailChange(user string, offset float64, localTime time.Time) error {
	if user == "" {
		return fmt.Errorf("no mail_change_user configured")
	}
	hostname, _ := os.Hostname()

	cmd := exec.Command(mailProgram(), user)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Fprintf(stdin, "Subject: chronyd clock change on %s\n\n", hostname)
	fmt.Fprintf(stdin, "On %s\n  with the system clock reading %s, an adjustment of %+.6g seconds was applied.\n",
		localTime.Format("Monday, 02 January 2006"),
		localTime.Format("15:04:05 (MST)"),
		offset,
	)
	stdin.Close()

	return cmd.Wait()
}

func mailProgram() string {
	if p := os.Getenv("CHRONY_MAIL_PROGRAM"); p != "" {
		return p
	}
	return "/usr/lib/sendmail"
}

// notifyModeChange pushes a systemd STATUS= update on every mode
// transition, grounded on ptp/c4u's daemon.SdNotify(false,
// daemon.SdNotifyReady) call.
func notifyModeChange(mode Mode) {
	_, _ = daemon.SdNotify(false, "STATUS=mode="+mode.String())
}

// notifyReady announces readiness once Initialise completes.
func notifyReady() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}
