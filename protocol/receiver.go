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

package protocol

// MaxPacketSize is the largest raw packet (RTP or JT1078) this receiver
// will accept, mirroring the source's RTP_MAX_SIZE.
const MaxPacketSize = 10 * 1024

// TrackContext holds the per-track stream state a Receiver carries for the
// lifetime of a connection: the remembered SSRC, the consecutive-mismatch
// streak, and the track's sample rate and Sorter handle.
type TrackContext struct {
	Type         TrackType
	SampleRateHz uint32
	Sorter       Sorter

	expectedSsrc  uint32
	mismatchCount int
}

// Receiver parses framed packets (generic RTP or JT1078) against a small,
// fixed set of tracks, validates them, and forwards accepted packets to the
// matching track's Sorter.
//
// A Receiver is owned by exactly one connection and must not be shared
// between goroutines, mirroring the Framer it is normally paired with.
type Receiver struct {
	tracks   []TrackContext
	pool     *Pool
	onReject func(trackIndex int, reason string)
	onRoll   func(trackIndex int)
}

// NewReceiver creates a Receiver over the given tracks, in track_index
// order. The slice is copied; each track's Sorter must already be set.
func NewReceiver(pool *Pool, tracks []TrackContext) *Receiver {
	r := &Receiver{
		tracks: make([]TrackContext, len(tracks)),
		pool:   pool,
	}
	copy(r.tracks, tracks)
	return r
}

// SetOnReject registers a callback invoked alongside every rejection's log
// line. Intended for metrics; trackIndex may be out of range if the caller
// passed a bad index.
func (r *Receiver) SetOnReject(onReject func(trackIndex int, reason string)) {
	r.onReject = onReject
}

// SetOnRoll registers a callback invoked whenever a track's SSRC rolls
// over after too many consecutive mismatches. Intended for metrics.
func (r *Receiver) SetOnRoll(onRoll func(trackIndex int)) {
	r.onRoll = onRoll
}

// reject logs a rejection and notifies the metrics hook, if any.
func (r *Receiver) reject(trackIndex int, reason string) {
	logger.Logkv("event", eventReceiverReject, "reason", reason, "track", trackIndex)
	if r.onReject != nil {
		r.onReject(trackIndex, reason)
	}
}

// checkSsrc implements the SSRC discipline shared by the generic and
// JT1078 paths (see the Receiver - SSRC discipline section of the design
// notes): the first SSRC seen on a track is adopted; a mismatch is
// rejected and counted; after more than 10 consecutive mismatches the
// track's Sorter is cleared and the new SSRC is adopted, but the packet
// that triggered the roll is still rejected.
func (r *Receiver) checkSsrc(trackIndex int, track *TrackContext, ssrc uint32) bool {
	if track.expectedSsrc == 0 {
		track.expectedSsrc = ssrc
		logger.Logkv("event", eventReceiverSsrcNew, "ssrc", ssrc)
		return true
	}
	if track.expectedSsrc == ssrc {
		track.mismatchCount = 0
		return true
	}
	track.mismatchCount++
	if track.mismatchCount > 10 {
		if track.Sorter != nil {
			track.Sorter.Clear()
		}
		logger.Logkv("event", eventReceiverSsrcRoll, "old_ssrc", track.expectedSsrc, "new_ssrc", ssrc)
		track.expectedSsrc = ssrc
		track.mismatchCount = 0
		if r.onRoll != nil {
			r.onRoll(trackIndex)
		}
	}
	logger.Logkv("event", eventReceiverReject, "reason", errorReceiverSsrcMismatch, "ssrc", ssrc)
	return false
}

// HandleOneRtp parses a generic (non-JT1078) RTP packet received on
// trackIndex, validates it, rewrites it into canonical interleaved form,
// and forwards it to that track's Sorter.
//
// rtpBytes is mutated in place (the padding flag is cleared, and the
// slice is shortened if padding is present) and must not be reused by the
// caller afterwards.
func (r *Receiver) HandleOneRtp(trackIndex int, rtpBytes []byte) error {
	if trackIndex < 0 || trackIndex >= len(r.tracks) {
		return ErrNoPayload
	}
	track := &r.tracks[trackIndex]

	rtpLen := len(rtpBytes)
	if rtpLen < 12 {
		r.reject(trackIndex, errorReceiverTooSmall)
		return ErrPacketTooSmall
	}

	version := rtpBytes[0] >> 6
	if version != 2 {
		r.reject(trackIndex, errorReceiverBadVersion)
		return ErrMalformedRtp
	}

	if track.SampleRateHz == 0 {
		r.reject(trackIndex, errorReceiverNoClock)
		return ErrMissingClock
	}

	data := rtpBytes
	if data[0]&0x20 != 0 {
		paddingLen := int(data[rtpLen-1])
		data[0] &^= 0x20
		rtpLen -= paddingLen
		data = data[:rtpLen]
	}

	extensionFlag := data[0]&0x10 != 0
	csrcCount := int(data[0] & 0x0f)
	mark := data[1]&0x80 != 0
	payloadType := data[1] & 0x7f
	sequence := uint16(data[2])<<8 | uint16(data[3])
	rawTimestamp := uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7])
	ssrc := uint32(data[8])<<24 | uint32(data[9])<<16 | uint32(data[10])<<8 | uint32(data[11])

	payloadOffset := 12 + 4*csrcCount
	if extensionFlag && rtpLen >= payloadOffset {
		extWords := uint16(data[payloadOffset-2])<<8 | uint16(data[payloadOffset-1])
		payloadOffset += (int(extWords) + 1) << 2
	}

	if rtpLen+4 <= payloadOffset {
		r.reject(trackIndex, errorReceiverNoPayload)
		return ErrNoPayload
	}

	if rtpLen > MaxPacketSize {
		r.reject(trackIndex, errorReceiverOversized)
		return ErrOversizedPacket
	}

	if !r.checkSsrc(trackIndex, track, ssrc) {
		return ErrSsrcMismatch
	}

	timestampMs := int64(rawTimestamp) * 1000 / int64(track.SampleRateHz)

	rtp := r.pool.Obtain()
	rtp.Type = track.Type
	rtp.Interleaved = 2 * uint8(track.Type)
	rtp.Mark = mark
	rtp.PayloadType = payloadType
	rtp.Sequence = sequence
	rtp.TimestampMs = timestampMs
	rtp.Ssrc = ssrc
	rtp.PayloadOffset = 4 + payloadOffset

	rtp.Data = make([]byte, rtpLen+4)
	writeCanonicalHeader(rtp.Data, rtp.Interleaved, rtpLen)
	copy(rtp.Data[4:], data)

	track.Sorter.SortPacket(sequence, rtp)
	return nil
}
