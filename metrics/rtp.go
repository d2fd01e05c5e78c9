/* Copyright (c) 2019 Gregor Riepl
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Rtp collects the counters and gauges the framer/receiver pipeline feeds:
// accepted/rejected packets by reason and variant, SSRC rolls, and the
// jitter/cycle state pulled from each track's Sorter.
var Rtp = struct {
	Accepted   *prometheus.CounterVec
	Rejected   *prometheus.CounterVec
	Variant    *prometheus.CounterVec
	SsrcRolls  *prometheus.CounterVec
	JitterSize *prometheus.GaugeVec
	CycleCount *prometheus.GaugeVec
}{
	Accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtpcore_packets_accepted_total",
		Help: "Packets accepted by the receiver, by track.",
	}, []string{"track"}),
	Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtpcore_packets_rejected_total",
		Help: "Packets rejected by the receiver, by track and reason.",
	}, []string{"track", "reason"}),
	Variant: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtpcore_connections_variant_total",
		Help: "Connections, by detected wire variant.",
	}, []string{"variant"}),
	SsrcRolls: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtpcore_ssrc_rolls_total",
		Help: "Stream re-originations (SSRC roll) observed, by track.",
	}, []string{"track"}),
	JitterSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rtpcore_sorter_jitter_size",
		Help: "Current reorder-buffer depth, by track.",
	}, []string{"track"}),
	CycleCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rtpcore_sorter_cycle_count",
		Help: "16-bit sequence wraps observed, by track.",
	}, []string{"track"}),
}

func init() {
	MustRegister(
		Rtp.Accepted,
		Rtp.Rejected,
		Rtp.Variant,
		Rtp.SsrcRolls,
		Rtp.JitterSize,
		Rtp.CycleCount,
	)
}
