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

	"github.com/kestrelmedia/rtpcore/util"
)

// Sorter is the external, per-track reorder-buffer contract a Receiver
// delivers accepted packets to. Its internal reordering policy is opaque
// to this package; only the shape of the contract matters here.
type Sorter interface {
	// SetOnSort registers the delivery sink, invoked with packets in
	// non-decreasing sequence order within each 16-bit cycle.
	SetOnSort(callback func(seq uint16, packet *RtpPacket))
	// SortPacket submits one packet, keyed by its RTP sequence number.
	SortPacket(seq uint16, packet *RtpPacket)
	// Clear drops all buffered packets and resets cycle counters.
	Clear()
	// JitterSize reports the current buffer depth.
	JitterSize() int
	// CycleCount reports the number of 16-bit sequence wraps observed.
	CycleCount() int
}

// DefaultSorter is a reference Sorter, built on this tree's existing
// ring-buffer reorder primitive (util.SequenceQueue), the same one
// RtpBridge.packetIntoQueue already uses to reassemble out-of-order
// packets by relative sequence position.
//
// Packets land at a position relative to the next expected sequence
// number. A packet that arrives too far ahead of the window forces a
// resync: the window is drained (delivering whatever is contiguous) and
// restarted at the new packet, rather than being silently dropped -- an
// improvement on the "TODO" left in RtpBridge.packetIntoQueue. A packet
// behind the window (late or duplicate) is dropped.
// DefaultSorter's fields are guarded by lock: SortPacket runs on the owning
// connection's goroutine, but JitterSize/CycleCount are polled from the
// stats API's HTTP handler goroutine.
type DefaultSorter struct {
	lock         sync.Mutex
	bound        int
	queue        *util.SequenceQueue
	onSort       func(seq uint16, packet *RtpPacket)
	armed        bool
	nextExpected uint16
	cycles       int
}

// NewDefaultSorter creates a reference Sorter with a lookahead window of
// the given size. A window of 1 effectively disables reordering.
func NewDefaultSorter(lookahead int) *DefaultSorter {
	if lookahead < 1 {
		lookahead = 1
	}
	return &DefaultSorter{
		bound: lookahead,
		queue: util.NewSequenceQueue(lookahead),
	}
}

// SetOnSort registers the delivery sink.
func (s *DefaultSorter) SetOnSort(callback func(seq uint16, packet *RtpPacket)) {
	s.onSort = callback
}

// deliverable is one packet ready to leave the window, paired with the
// sequence number it is delivered under.
type deliverable struct {
	seq    uint16
	packet *RtpPacket
}

// SortPacket submits one packet, keyed by its RTP sequence number. The
// registered onSort callback, if any, runs after the internal lock is
// released, so it may safely call back into JitterSize/CycleCount.
func (s *DefaultSorter) SortPacket(seq uint16, packet *RtpPacket) {
	ready := s.sortPacketLocked(seq, packet)
	s.deliverAll(ready)
}

func (s *DefaultSorter) sortPacketLocked(seq uint16, packet *RtpPacket) []deliverable {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.armed {
		s.nextExpected = seq
		s.armed = true
	}
	// signed circular distance from the head of the window
	delta := int32(int16(seq - s.nextExpected))
	if delta < 0 {
		logger.Logkv("event", "sorter_drop", "reason", "late_or_duplicate", "seq", seq)
		return nil
	}
	pos := int(delta)
	var ready []deliverable
	if pos >= s.bound {
		logger.Logkv("event", "sorter_resync", "gap", util.AbsSub(pos, s.bound))
		ready = s.resyncLocked()
		s.nextExpected = seq
		pos = 0
	}
	err := s.queue.Insert(pos, packet)
	if err == util.ErrSequenceQueueOccupied {
		logger.Logkv("event", "sorter_drop", "reason", "duplicate_slot", "seq", seq)
		return ready
	}
	if err != nil {
		logger.Logkv("event", "sorter_error", "error", err.Error())
		return ready
	}
	return append(ready, s.drainReadyLocked()...)
}

// Clear drops all buffered packets and resets cycle counters.
func (s *DefaultSorter) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.queue = util.NewSequenceQueue(s.bound)
	s.armed = false
	s.cycles = 0
}

// JitterSize reports the current buffer depth.
func (s *DefaultSorter) JitterSize() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.queue.Length()
}

// CycleCount reports the number of 16-bit sequence wraps observed.
func (s *DefaultSorter) CycleCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.cycles
}

// resyncLocked collects whatever is already contiguous at the head of the
// window, then discards the rest of the window to make room for a packet
// that landed far ahead of it. Caller must hold s.lock.
func (s *DefaultSorter) resyncLocked() []deliverable {
	ready := s.drainReadyLocked()
	s.queue = util.NewSequenceQueue(s.bound)
	return ready
}

// drainReadyLocked pops packets from the head of the window for as long as
// the head slot is filled, returning them in delivery order. SequenceQueue.Pop
// refuses to advance past an empty slot, so this naturally stops at the
// first gap. Caller must hold s.lock.
func (s *DefaultSorter) drainReadyLocked() []deliverable {
	var ready []deliverable
	for {
		v, err := s.queue.Pop()
		if err != nil {
			return ready
		}
		seq := s.nextExpected
		s.nextExpected++
		if s.nextExpected == 0 {
			s.cycles++
		}
		ready = append(ready, deliverable{seq: seq, packet: v.(*RtpPacket)})
	}
}

// deliverAll invokes the onSort callback for each ready packet, in order,
// without holding s.lock.
func (s *DefaultSorter) deliverAll(ready []deliverable) {
	if s.onSort == nil {
		return
	}
	for _, d := range ready {
		s.onSort(d.seq, d.packet)
	}
}
