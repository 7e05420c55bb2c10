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
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ReadDriftFile reads the two whitespace-separated floats from path
// (§4.2/§6). Anything else is a warning and discards the attempt, returning
// ok=false rather than an error — a missing or malformed drift file is
// routine at first start, not exceptional.
func ReadDriftFile(path string) (freqPPM, skewPPM float64, ok bool) {
	if path == "" {
		return 0, 0, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("reference: reading drift file %s: %v", path, err)
		}
		return 0, 0, false
	}
	n, err := fmt.Sscanf(string(data), "%f %f", &freqPPM, &skewPPM)
	if err != nil || n != 2 {
		log.Warnf("reference: drift file %s did not contain two floats", path)
		return 0, 0, false
	}
	return freqPPM, skewPPM, true
}

// WriteDriftFile atomically rewrites path with freqPPM and skew (§4.2): it
// writes "<path>.tmp", fsyncs it, copies ownership/mode bits from the
// existing file if present, and renames over. Any failure along the way
// leaves the existing file undisturbed.
func WriteDriftFile(path string, freqPPM, skew float64) error {
	if path == "" {
		return nil
	}
	if err := ensureParentDir(path); err != nil {
		log.Warnf("reference: creating drift file directory for %s: %v", path, err)
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		log.Warnf("reference: creating drift file temp %s: %v", tmp, err)
		return err
	}
	defer os.Remove(tmp) // no-op once renamed away

	if _, err := fmt.Fprintf(f, "%20.6f %20.6f\n", freqPPM, skew*1e6); err != nil {
		f.Close()
		log.Warnf("reference: writing drift file temp %s: %v", tmp, err)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		log.Warnf("reference: fsyncing drift file temp %s: %v", tmp, err)
		return err
	}
	if err := f.Close(); err != nil {
		log.Warnf("reference: closing drift file temp %s: %v", tmp, err)
		return err
	}

	if st, err := os.Stat(path); err == nil {
		if sys, ok := st.Sys().(*unix.Stat_t); ok {
			_ = os.Chown(tmp, int(sys.Uid), int(sys.Gid))
		}
		_ = os.Chmod(tmp, st.Mode()&0777)
	}

	if err := os.Rename(tmp, path); err != nil {
		log.Warnf("reference: renaming drift file temp %s over %s: %v", tmp, path, err)
		return err
	}
	return nil
}

// ensureParentDir creates the drift file's directory ahead of the first
// write, mirroring the create-parents-then-write pattern used throughout the
// teacher's config loaders. WriteDriftFile calls this before opening the
// temp file so a fresh install with a not-yet-created drift directory
// doesn't have to fail once before succeeding.
func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
