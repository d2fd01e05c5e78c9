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
	"bytes"
)

const (
	// ehomeHeaderSize is the length of the EHOME private header, in bytes.
	ehomeHeaderSize = 256
	// jt1078MinFirstPacket is the minimum number of bytes needed before the
	// first JT1078 packet can be recognised.
	jt1078MinFirstPacket = 26
)

var (
	ehomeMagic  = []byte{0x01, 0x00, 0x01, 0x00}
	jt1078Magic = []byte{0x30, 0x31, 0x63, 0x64}
)

// Framer splits a monotonic, append-only byte stream into discrete
// RTP-family packets. It distinguishes three on-wire framings by magic
// bytes on the first packet, and commits to that variant for the lifetime
// of the connection: it is never re-detected afterwards (see SearchPacketTail).
//
// A Framer is owned by exactly one I/O driver and must not be shared
// between goroutines.
type Framer struct {
	// offset is the number of leading bytes OnRecvHeader drops before the
	// payload is interpreted as an RTP header.
	offset int
	// searchStart is where the length-prefixed tail search resumes,
	// relative to the start of the accumulated buffer. Unused when isJt1078.
	searchStart int
	// isEhome is sticky: true once an EHOME header has been observed.
	isEhome bool
	// isJt1078 is sticky: true once a JT1078 magic has been observed.
	isJt1078 bool
	// detected is true once the first packet's variant has been committed.
	detected bool
	// onPacket receives the framed, offset-adjusted payload.
	onPacket func(data []byte)
	// onVariant, if set, is called once with the detected wire variant name.
	onVariant func(variant string)
}

// NewFramer creates a Framer with no packets observed yet.
func NewFramer() *Framer {
	return &Framer{}
}

// SetOnPacket registers the sink that receives each framed packet payload.
// Typically this is a Receiver's HandleOneRtp/HandleJt1078Rtp entry point.
func (f *Framer) SetOnPacket(onPacket func(data []byte)) {
	f.onPacket = onPacket
}

// SetOnVariant registers a callback invoked once, the moment the wire
// variant is committed. Intended for metrics; never called more than once
// per Framer since detection is sticky.
func (f *Framer) SetOnVariant(onVariant func(variant string)) {
	f.onVariant = onVariant
}

// IsEhome reports whether the connection has been identified as EHOME.
func (f *Framer) IsEhome() bool { return f.isEhome }

// IsJt1078 reports whether the connection has been identified as JT1078.
func (f *Framer) IsJt1078() bool { return f.isJt1078 }

// SearchPacketTail scans buf, the currently accumulated unconsumed prefix
// of the stream, for the end of the next complete packet.
//
// It returns the index one past the end of that packet. If buf does not
// yet contain a full packet, it returns ErrNeedMoreData; the caller should
// retain buf and retry once more bytes have arrived.
//
// Variant detection only happens once, on the very first call. Every
// subsequent call dispatches directly to the committed variant's tail
// search, since the wire format guarantees later packets start the same
// way the first one did.
func (f *Framer) SearchPacketTail(buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, ErrNeedMoreData
	}
	if !f.detected {
		var variant string
		switch {
		case bytes.Equal(buf[0:4], ehomeMagic):
			if len(buf) < ehomeHeaderSize+4 {
				return 0, ErrNeedMoreData
			}
			f.offset = ehomeHeaderSize + 4
			f.searchStart = ehomeHeaderSize + 2
			f.isEhome = true
			f.detected = true
			variant = "ehome"
		case buf[0] == '$':
			f.offset = 4
			f.searchStart = 2
			f.detected = true
			variant = "interleaved"
		case bytes.Equal(buf[0:4], jt1078Magic):
			if len(buf) < jt1078MinFirstPacket {
				return 0, ErrNeedMoreData
			}
			f.offset = 0
			f.isJt1078 = true
			f.detected = true
			variant = "jt1078"
		default:
			f.offset = 2
			f.searchStart = 0
			f.detected = true
			variant = "length_prefixed"
		}
		logger.Logkv("event", eventFramerVariant, "variant", variant)
		if f.onVariant != nil {
			f.onVariant(variant)
		}
	}
	if f.isJt1078 {
		return jt1078TailSearch(buf)
	}
	return genericTailSearch(buf, f.searchStart)
}

// genericTailSearch locates the end of a 2-byte big-endian length-prefixed
// packet, where the length field itself starts at buf[start:start+2].
func genericTailSearch(buf []byte, start int) (int, error) {
	if len(buf) < start+2 {
		return 0, ErrNeedMoreData
	}
	length := int(buf[start])<<8 | int(buf[start+1])
	if len(buf)-start < length+2 {
		return 0, ErrNeedMoreData
	}
	return start + 2 + length, nil
}

// jt1078TailSearch locates the start of the next JT1078 magic, which
// delimits the end of the current packet. JT1078 packets are not
// length-prefixed, so this must scan byte by byte.
//
// The loop bound is guarded at len>=8 so that len-4 can never underflow on
// a short buffer (see DESIGN.md).
func jt1078TailSearch(buf []byte) (int, error) {
	n := len(buf)
	if n < 8 {
		return 0, ErrNeedMoreData
	}
	for i := 4; i <= n-4; i++ {
		if bytes.Equal(buf[i:i+4], jt1078Magic) {
			return i, nil
		}
	}
	return 0, ErrNeedMoreData
}

// OnRecvHeader is called once a complete packet (as bounded by
// SearchPacketTail) is available in a writable buffer. It drops the
// variant's leading offset, applies the EHOME fix-up if needed, and
// dispatches the result to the registered packet sink.
//
// packet is mutated in place (the EHOME fix-up shifts bytes) and must not
// be used by the caller after this call returns.
func (f *Framer) OnRecvHeader(packet []byte) {
	data := packet[f.offset:]
	if f.isEhome && len(data) > 12 && data[12] == '\r' {
		// The EHOME framing occasionally injects a stray \r at index 12,
		// misaligning the RTP header by one byte. Shift the header back
		// into place and drop it.
		copy(data[1:13], data[0:12])
		data = data[1:]
		logger.Logkv("event", eventFramerEhomeFix)
	}
	if f.onPacket != nil {
		f.onPacket(data)
	}
}
