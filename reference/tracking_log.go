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
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
)

// LoggerInterface is an interface for debug/tracking-log output, following
// the indirection ntp/chrony/logger.go uses so a caller can swap in stderr,
// a file, or a discard sink without this package importing a concrete
// logging framework for its columnar output.
type LoggerInterface interface {
	Printf(format string, v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Printf(_ string, _ ...interface{}) {}

// TrackingLogger is a package-level LoggerInterface sink; it defaults to
// discarding everything. The tracker does not write tracking-log rows to it:
// rows go only to the file named by Config.TrackingLog.
var TrackingLogger LoggerInterface = noopLogger{}

// trackingLogHeader is the exact header row specified in §6.
const trackingLogHeader = "   Date (UTC) Time     IP Address   St   Freq ppm   Skew ppm     Offset L Co  Offset sd Rem. corr."

// formatTrackingRow renders one tracking-log row per §6's exact format.
func formatTrackingRow(st *State, freqPPM, skewPPM, offset float64, leap Leap, combinedSources int, offsetSD, uncorrected float64) string {
	ref := RefIDString(st.RefID, st.RefIP)
	return fmt.Sprintf("%s %-15s %2d %10.3f %10.3f %10.3e %c %2d %10.3e %10.3e",
		st.LastRefUpdate.UTC().Format("2006-01-02 15:04:05"),
		ref,
		st.Stratum,
		freqPPM,
		skewPPM,
		offset,
		leap.Char(),
		combinedSources,
		offsetSD,
		uncorrected,
	)
}

// openTrackingLog opens path for append, writing the header if the file is
// new/empty.
func openTrackingLog(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, nil
	}
	info, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening tracking log %s: %w", path, err)
	}
	if statErr != nil || info.Size() == 0 {
		fmt.Fprintln(f, trackingLogHeader)
	}
	return f, nil
}

// FormatReport renders a TrackingReport as a two-column table for any CLI
// front end wanting a human-readable dump (the Non-goal excludes *providing*
// a CLI, not rendering a table for one to use). Nothing in this package
// calls it; ModePrintOnce only logs the offset.
func FormatReport(r *TrackingReport) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Field", "Value"})
	rows := [][]string{
		{"Reference ID", fmt.Sprintf("%08X (%s)", r.RefID, RefIDString(r.RefID, r.RefIP))},
		{"Stratum", fmt.Sprintf("%d", r.Stratum)},
		{"Leap status", r.LeapStatus.String()},
		{"Synchronised", fmt.Sprintf("%v", r.IsSynchronised)},
		{"Reference time", r.RefTime.UTC().Format("2006-01-02 15:04:05 UTC")},
		{"Current correction", fmt.Sprintf("%.9f", r.CurrentCorrection)},
		{"Frequency", fmt.Sprintf("%.3f ppm", r.FreqPPM)},
		{"Residual freq", fmt.Sprintf("%.3f ppm", r.ResidFreqPPM)},
		{"Skew", fmt.Sprintf("%.3f ppm", r.SkewPPM)},
		{"Root delay", fmt.Sprintf("%.9f", r.RootDelay)},
		{"Root dispersion", fmt.Sprintf("%.9f", r.RootDispersion)},
		{"Last offset", fmt.Sprintf("%.9f", r.LastOffset)},
		{"RMS offset", fmt.Sprintf("%.9f", r.RMSOffset)},
		{"Update interval", fmt.Sprintf("%.1f", r.LastUpdateInterval)},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return buf.String()
}
