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

// Command reftrackerd wires a reference.Tracker to the adjtime(2) clock
// driver and an in-process timer queue. It exists to exercise the
// reference package end to end; a real deployment would feed it
// measurements from a source pipeline instead of nothing.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/timesync/reftracker/reference"
	"github.com/timesync/reftracker/reference/clockdriver"
	"github.com/timesync/reftracker/reference/scheduler"
)

func main() {
	var (
		cfgPath       string
		legacyCfgPath string
		verbose       bool
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "reftrackerd: reference-tracker daemon\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&cfgPath, "cfg", "", "Path to YAML config")
	flag.StringVar(&legacyCfgPath, "legacy-cfg", "", "Path to a chrony.conf-style flat config instead of -cfg")
	flag.BoolVar(&verbose, "verbose", false, "Verbose logging")
	flag.Parse()

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	var cfg *reference.Config
	var err error
	switch {
	case legacyCfgPath != "":
		cfg, err = reference.ReadLegacyConfig(legacyCfgPath)
	case cfgPath != "":
		cfg, err = reference.ReadConfig(cfgPath)
	default:
		c := reference.DefaultConfig()
		cfg = &c
	}
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	log.Debugf("config: %+v", *cfg)

	driver := clockdriver.New(int32(unix.CLOCK_REALTIME))
	sched := scheduler.New()
	defer sched.Close()

	tracker := reference.NewTracker(cfg, driver, sched)
	if err := tracker.Initialise(); err != nil {
		log.Fatalf("initialising tracker: %v", err)
	}
	defer func() {
		if err := tracker.Finalise(); err != nil {
			log.Warnf("finalising tracker: %v", err)
		}
	}()

	log.Infof("reftrackerd running, stratum=%d", tracker.GetOurStratum())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Infof("reftrackerd shutting down")
}
