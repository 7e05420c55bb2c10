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

import "github.com/prometheus/client_golang/prometheus"

// Prometheus gauges mirroring the fields of TrackingReport, registered on
// the default registerer the same way fbclock/daemon wires its metrics.
var (
	metricSkewPPM = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reftracker_skew_ppm",
		Help: "Estimated fractional frequency uncertainty of the local oscillator, in ppm.",
	})
	metricResidFreqPPM = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reftracker_residual_frequency_ppm",
		Help: "Frequency component of the last measurement not absorbed into the absolute frequency.",
	})
	metricOffsetSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reftracker_last_offset_seconds",
		Help: "Last offset reported to the estimator, re-anchored to the local clock.",
	})
	metricStratum = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reftracker_stratum",
		Help: "Advertised stratum; 16 when unsynchronised.",
	})
	metricDriftFileAgeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reftracker_drift_file_age_seconds",
		Help: "Seconds since the drift file was last rewritten.",
	})
	metricSynchronised = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reftracker_synchronised",
		Help: "1 if the tracker currently considers itself synchronised, else 0.",
	})
)

func init() {
	prometheus.MustRegister(
		metricSkewPPM,
		metricResidFreqPPM,
		metricOffsetSeconds,
		metricStratum,
		metricDriftFileAgeSeconds,
		metricSynchronised,
	)
}

// publishMetrics copies the current state onto the package's prometheus
// gauges; called at the end of every operation that mutates State.
func publishMetrics(st *State) {
	metricSkewPPM.Set(st.Skew * 1e6)
	metricResidFreqPPM.Set(st.ResidualFreq)
	metricOffsetSeconds.Set(st.LastOffset)
	metricDriftFileAgeSeconds.Set(st.DriftFileAge)
	if st.Synchronised {
		metricSynchronised.Set(1)
		metricStratum.Set(float64(st.Stratum))
	} else {
		metricSynchronised.Set(0)
		metricStratum.Set(16)
	}
}
