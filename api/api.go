/* Copyright (c) 2016-2018 Gregor Riepl
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

package api

import (
	"encoding/json"
	"net/http"

	"github.com/kestrelmedia/rtpcore/metrics"
	"github.com/kestrelmedia/rtpcore/protocol"
)

// trackStats is one track's entry in the stats API response.
type trackStats struct {
	Name       string `json:"name"`
	JitterSize int    `json:"jitter_size"`
	CycleCount int    `json:"cycle_count"`
}

// statsApi reports the jitter buffer depth and cycle count of every
// configured track's Sorter.
type statsApi struct {
	names   []string
	sorters []protocol.Sorter
}

// NewStatsApi creates a stats API object, serving jitter/cycle data for the
// given tracks in track_index order.
func NewStatsApi(names []string, sorters []protocol.Sorter) http.Handler {
	return &statsApi{
		names:   names,
		sorters: sorters,
	}
}

// ServeHTTP reports jitter_size and cycle_count for every track as JSON.
func (api *statsApi) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Add("Content-Type", "application/json")

	tracks := make([]trackStats, len(api.sorters))
	for i, sorter := range api.sorters {
		tracks[i] = trackStats{
			Name:       api.names[i],
			JitterSize: sorter.JitterSize(),
			CycleCount: sorter.CycleCount(),
		}
	}

	response, err := json.Marshal(struct {
		Tracks []trackStats `json:"tracks"`
	}{Tracks: tracks})
	if err == nil {
		writer.WriteHeader(http.StatusOK)
		writer.Write(response)
	} else {
		writer.WriteHeader(http.StatusInternalServerError)
		writer.Write([]byte(http.StatusText(http.StatusInternalServerError)))
		logger.Logkv(
			"event", eventApiError,
			"error", errorApiJsonEncode,
			"message", err.Error(),
		)
	}
}

// prometheusApi implements a handler for scraping Prometheus metrics.
type prometheusApi struct {
	handler http.Handler
}

// NewPrometheusApi creates a new Prometheus metrics API object.
func NewPrometheusApi() http.Handler {
	return &prometheusApi{
		handler: metrics.PromHandler(),
	}
}

// ServeHTTP forwards the request to the promhttp handler.
func (api *prometheusApi) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	api.handler.ServeHTTP(writer, request)
}
