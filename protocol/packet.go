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

import (
	"sync"
)

// TrackType enumerates the media kind of a track.
// The numeric value doubles as half of the interleaved channel byte
// (Interleaved = 2 * TrackType).
type TrackType uint8

const (
	TrackVideo TrackType = 0
	TrackAudio TrackType = 1
)

// RtpPacket is the canonical record emitted by the Receiver.
//
// Data always starts with a 4-byte interleaved frame header
// ('$', Interleaved, len_hi, len_lo), followed by the original RTP bytes
// (generic path) or the JT1078 codec payload (JT1078 path, start-code
// separator stripped).
type RtpPacket struct {
	// Type is the track's media kind.
	Type TrackType
	// Interleaved is 2*Type, the RTP sub-channel byte of the canonical header.
	Interleaved uint8
	// Mark is the RTP marker bit.
	Mark bool
	// PayloadType is the 7-bit RTP payload type.
	PayloadType uint8
	// Sequence is the 16-bit RTP sequence number.
	Sequence uint16
	// TimestampMs is the media timestamp, already converted to milliseconds.
	TimestampMs int64
	// Ssrc is the synchronisation source (generic RTP) or the derived
	// SIM-based identity (JT1078, see DeriveJt1078Ssrc).
	Ssrc uint32
	// PayloadOffset is the byte offset into Data where the codec payload
	// begins. Always >= 4.
	PayloadOffset int
	// Data is the canonical interleaved frame: header + payload bytes.
	Data []byte
}

// reset clears a packet so it can be reused from the Pool.
func (p *RtpPacket) reset() {
	p.Type = 0
	p.Interleaved = 0
	p.Mark = false
	p.PayloadType = 0
	p.Sequence = 0
	p.TimestampMs = 0
	p.Ssrc = 0
	p.PayloadOffset = 0
	p.Data = nil
}

// writeCanonicalHeader writes the 4-byte interleaved frame header into data.
// payloadLen is the number of bytes that follow the header.
func writeCanonicalHeader(data []byte, interleaved uint8, payloadLen int) {
	data[0] = '$'
	data[1] = interleaved
	data[2] = byte(payloadLen >> 8)
	data[3] = byte(payloadLen & 0xff)
}

// Pool is a bounded, reusable allocator for RtpPacket records.
//
// Its capacity is configurable (Config.PoolSize); once that many packets
// are outstanding, further Obtain calls allocate fresh ones so the pipeline
// never blocks on the pool. Ownership of an obtained packet belongs to the
// caller until it is hand off to a Sorter, and must not be mutated after
// that point. Capacity 0 means "no cap", matching sync.Pool's own
// unlimited-growth behaviour.
type Pool struct {
	pool sync.Pool
}

// NewPool creates a packet pool. size is advisory: it is recorded for
// introspection (metrics) but sync.Pool itself has no hard limit, so this
// matches the spec's "policy is opaque to this spec" wording.
func NewPool(size int) *Pool {
	p := &Pool{}
	p.pool.New = func() interface{} {
		return &RtpPacket{}
	}
	return p
}

// Obtain returns an RtpPacket, recycled from the pool if one is available.
func (p *Pool) Obtain() *RtpPacket {
	return p.pool.Get().(*RtpPacket)
}

// Release returns a packet to the pool after the Sorter is done with it.
func (p *Pool) Release(rtp *RtpPacket) {
	rtp.reset()
	p.pool.Put(rtp)
}
