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
	"errors"
)

var (
	// ErrNeedMoreData is returned by SearchPacketTail when the accumulated
	// buffer doesn't yet contain a complete packet. It is not a failure;
	// the substrate is expected to read more bytes and retry.
	ErrNeedMoreData = errors.New("Not enough data to locate a packet boundary")

	// ErrMalformedRtp indicates the generic RTP header failed the version
	// check. This is the one connection-fatal error in the taxonomy: the
	// substrate should tear down the connection rather than continue
	// feeding it packets.
	ErrMalformedRtp = errors.New("Invalid RTP version")

	// ErrPacketTooSmall means rtp_len was below the 12-byte fixed header.
	ErrPacketTooSmall = errors.New("RTP packet smaller than the fixed header")

	// ErrNoPayload means the computed payload offset left no payload bytes.
	ErrNoPayload = errors.New("RTP packet carries no payload")

	// ErrOversizedPacket means rtp_len exceeded MaxPacketSize.
	ErrOversizedPacket = errors.New("RTP packet exceeds maximum size")

	// ErrMissingClock means the track's sample rate is zero, so the
	// timestamp cannot be converted to milliseconds.
	ErrMissingClock = errors.New("Sample rate is zero")

	// ErrSsrcMismatch means the packet's SSRC didn't match the track's
	// remembered SSRC (and the mismatch streak hasn't rolled the track yet).
	ErrSsrcMismatch = errors.New("SSRC does not match track context")

	// ErrJt1078Reject means the JT1078 V/P/X/CC flags didn't match the
	// required V=2,P=0,X=0,CC=1, or the packet carried pass-through data.
	ErrJt1078Reject = errors.New("JT1078 packet rejected by flags or data type")
)
