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
	"reflect"
	"testing"
)

func TestConfig01(t *testing.T) {
	t01 := DefaultConfiguration()
	r01 := DefaultConfiguration()
	if !reflect.DeepEqual(t01, r01) {
		t.Errorf("Default configuration does not match test case")
	}
}

func TestConfig02(t *testing.T) {
	c02 := `{
		"listen": "testhost:9999"
	}`
	r02, e02 := LoadConfigurationBytes([]byte(c02))
	if e02 != nil || r02.Listen != "testhost:9999" {
		t.Errorf("Variable loaded from JSON does not match expected result")
	}
}

func TestConfig03(t *testing.T) {
	t03 := DefaultConfiguration()
	t03.Listen = "testhost:9999"
	c03 := `{
		"listen": "testhost:9999"
	}`
	r03, e03 := LoadConfigurationBytes([]byte(c03))
	if e03 != nil || !reflect.DeepEqual(t03, r03) {
		t.Logf("t03: %v", t03)
		t.Logf("r03: %v", r03)
		t.Errorf("Loaded JSON configuration does not match default configuration plus variable")
	}
}

func TestConfig04(t *testing.T) {
	t04 := DefaultConfiguration()
	t04.Tracks = []Track{
		{TrackType: "video", SampleRateHz: 90000},
	}
	c04 := `{
		"tracks": [
			{"track_type": "video", "sample_rate_hz": 90000}
		]
	}`
	r04, e04 := LoadConfigurationBytes([]byte(c04))
	if e04 != nil || !reflect.DeepEqual(t04, r04) {
		t.Logf("t04: %v", t04)
		t.Logf("r04: %v", r04)
		t.Logf("e04: %v", e04)
		t.Errorf("Tracks list not parsed correctly")
	}
}

func TestConfigRejectsUnknownTrackType(t *testing.T) {
	c := `{
		"tracks": [
			{"track_type": "teletext", "sample_rate_hz": 90000}
		]
	}`
	if _, err := LoadConfigurationBytes([]byte(c)); err != ErrInvalidTrackType {
		t.Fatalf("expected ErrInvalidTrackType, got %v", err)
	}
}

func TestConfigRejectsDuplicateTrackType(t *testing.T) {
	c := `{
		"tracks": [
			{"track_type": "video", "sample_rate_hz": 90000},
			{"track_type": "video", "sample_rate_hz": 90000}
		]
	}`
	if _, err := LoadConfigurationBytes([]byte(c)); err != ErrDuplicateTrackType {
		t.Fatalf("expected ErrDuplicateTrackType, got %v", err)
	}
}
