/* Copyright (c) 2022 Gregor Riepl
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
	"github.com/kestrelmedia/rtpcore/util"
)

const (
	moduleProtocol = "protocol"
	//
	eventFramerVariant    = "variant"
	eventFramerEhomeFix   = "ehome_fixup"
	eventReceiverReject   = "reject"
	eventReceiverSsrcNew  = "ssrc_new"
	eventReceiverSsrcRoll = "ssrc_roll"
	//
	errorReceiverTooSmall     = "rtp_too_small"
	errorReceiverBadVersion   = "rtp_version"
	errorReceiverNoPayload    = "no_payload"
	errorReceiverOversized    = "oversized"
	errorReceiverNoClock      = "no_clock"
	errorReceiverSsrcMismatch = "ssrc_mismatch"
	errorReceiverJt1078Reject = "jt1078_reject"
	errorReceiverJt1078Pass   = "jt1078_passthrough"
)

var logger = util.NewGlobalModuleLogger(moduleProtocol, nil)
