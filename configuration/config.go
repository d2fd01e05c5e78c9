/* Copyright (c) 2016-2017 Gregor Riepl
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

package configuration

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/kestrelmedia/rtpcore/util"
)

// ErrInvalidTrackType is returned when a track's track_type is neither
// "audio" nor "video".
var ErrInvalidTrackType = errors.New("invalid track_type")

// ErrDuplicateTrackType is returned when two tracks share a track_type;
// the demo driver's track-hinting policy assumes one track per type.
var ErrDuplicateTrackType = errors.New("duplicate track_type")

var allowedTrackTypes = func() util.Set {
	set := util.MakeSet()
	set.Add("audio")
	set.Add("video")
	return set
}()

// Track is one entry of the ordered track list; its position in
// Configuration.Tracks is the track_index the Framer/Receiver pair
// addresses it by.
type Track struct {
	// TrackType is "video" or "audio".
	TrackType string `json:"track_type"`
	// SampleRateHz is the RTP clock rate used to convert timestamps to
	// milliseconds. Zero is rejected by the receiver (MissingClock).
	SampleRateHz uint32 `json:"sample_rate_hz"`
}

// Configuration is a representation of the configurable settings.
// These are normally read from a JSON file and deserialized by
// the builtin marshaler.
type Configuration struct {
	// Listen is the TCP address the demo driver binds to, one connection
	// per Framer+Receiver pair.
	Listen string `json:"listen"`
	// PoolSize is the advisory capacity of the packet pool.
	PoolSize int `json:"pool_size"`
	// Lookahead is the reorder window size given to each track's
	// DefaultSorter.
	Lookahead int `json:"lookahead"`
	// Tracks is the ordered list of tracks; index matches track_index.
	Tracks []Track `json:"tracks"`
}

// DefaultConfiguration creates and returns a configuration object
// with default values.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Listen:    "localhost:8554",
		PoolSize:  512,
		Lookahead: 16,
		Tracks: []Track{
			{TrackType: "video", SampleRateHz: 90000},
			{TrackType: "audio", SampleRateHz: 8000},
		},
	}
}

// LoadConfigurationFile loads a configuration in JSON format from "filename".
func LoadConfigurationFile(filename string) (*Configuration, error) {
	fd, err := os.Open(filename)
	if err == nil {
		defer fd.Close()
		return LoadConfiguration(fd)
	}
	return nil, err
}

// LoadConfiguration reads JSON data from the Reader argument and returns a parsed configuration from it.
func LoadConfiguration(reader io.Reader) (*Configuration, error) {
	config := DefaultConfiguration()

	decoder := json.NewDecoder(reader)
	err := decoder.Decode(&config)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects track lists with an unrecognised track_type or with two
// tracks sharing the same type.
func (c *Configuration) Validate() error {
	seen := util.MakeSet()
	for _, t := range c.Tracks {
		if !allowedTrackTypes.Contains(t.TrackType) {
			return ErrInvalidTrackType
		}
		if seen.Contains(t.TrackType) {
			return ErrDuplicateTrackType
		}
		seen.Add(t.TrackType)
	}
	return nil
}

// LoadConfigurationBytes parses the byte array argument as JSON and initialises a configuration from it.
func LoadConfigurationBytes(json []byte) (*Configuration, error) {
	return LoadConfiguration(bytes.NewReader(json))
}
