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
	"testing"
)

func TestDefaultSorterInOrder(t *testing.T) {
	s := NewDefaultSorter(4)
	var delivered []uint16
	s.SetOnSort(func(seq uint16, packet *RtpPacket) {
		delivered = append(delivered, seq)
	})

	for i := uint16(0); i < 3; i++ {
		s.SortPacket(i, &RtpPacket{Sequence: i})
	}
	if len(delivered) != 3 {
		t.Fatalf("expected 3 delivered packets, got %d", len(delivered))
	}
	for i, seq := range delivered {
		if seq != uint16(i) {
			t.Errorf("expected seq %d at position %d, got %d", i, i, seq)
		}
	}
}

func TestDefaultSorterReorders(t *testing.T) {
	s := NewDefaultSorter(4)
	var delivered []uint16
	s.SetOnSort(func(seq uint16, packet *RtpPacket) {
		delivered = append(delivered, seq)
	})

	s.SortPacket(0, &RtpPacket{Sequence: 0})
	s.SortPacket(2, &RtpPacket{Sequence: 2})
	if len(delivered) != 1 {
		t.Fatalf("packet 2 should wait for packet 1, got %d delivered", len(delivered))
	}
	s.SortPacket(1, &RtpPacket{Sequence: 1})
	if len(delivered) != 3 {
		t.Fatalf("expected 3 delivered after the gap fills, got %d", len(delivered))
	}
	for i, seq := range delivered {
		if seq != uint16(i) {
			t.Errorf("expected seq %d at position %d, got %d", i, i, seq)
		}
	}
}

func TestDefaultSorterDropsLate(t *testing.T) {
	s := NewDefaultSorter(4)
	var delivered []uint16
	s.SetOnSort(func(seq uint16, packet *RtpPacket) {
		delivered = append(delivered, seq)
	})

	s.SortPacket(5, &RtpPacket{Sequence: 5})
	s.SortPacket(3, &RtpPacket{Sequence: 3}) // behind the window, dropped
	if len(delivered) != 1 || delivered[0] != 5 {
		t.Fatalf("late packet should be dropped, delivered=%v", delivered)
	}
}

func TestDefaultSorterResyncsOnFarAheadPacket(t *testing.T) {
	s := NewDefaultSorter(4)
	var delivered []uint16
	s.SetOnSort(func(seq uint16, packet *RtpPacket) {
		delivered = append(delivered, seq)
	})

	s.SortPacket(0, &RtpPacket{Sequence: 0})
	s.SortPacket(100, &RtpPacket{Sequence: 100}) // far beyond the window
	if len(delivered) != 2 {
		t.Fatalf("expected both packets delivered across the resync, got %d", len(delivered))
	}
	if delivered[0] != 0 || delivered[1] != 100 {
		t.Fatalf("unexpected delivery order: %v", delivered)
	}
	if s.JitterSize() != 0 {
		t.Errorf("expected empty window after resync, got %d", s.JitterSize())
	}
}

func TestDefaultSorterClear(t *testing.T) {
	s := NewDefaultSorter(4)
	s.SetOnSort(func(seq uint16, packet *RtpPacket) {})
	s.SortPacket(0, &RtpPacket{Sequence: 0})
	s.SortPacket(2, &RtpPacket{Sequence: 2})
	if s.JitterSize() == 0 {
		t.Fatalf("expected a buffered packet before Clear")
	}
	s.Clear()
	if s.JitterSize() != 0 {
		t.Errorf("expected empty window after Clear, got %d", s.JitterSize())
	}
	if s.CycleCount() != 0 {
		t.Errorf("expected cycle count reset after Clear, got %d", s.CycleCount())
	}
}

func TestDefaultSorterCycleCount(t *testing.T) {
	s := NewDefaultSorter(4)
	s.SetOnSort(func(seq uint16, packet *RtpPacket) {})
	s.SortPacket(0xFFFE, &RtpPacket{})
	s.SortPacket(0xFFFF, &RtpPacket{})
	s.SortPacket(0x0000, &RtpPacket{})
	if s.CycleCount() != 1 {
		t.Errorf("expected 1 cycle after wrapping past 0xFFFF, got %d", s.CycleCount())
	}
}

// TestDefaultSorterCallbackReentrant guards against a deadlock: the onSort
// callback must be free to call back into JitterSize/CycleCount.
func TestDefaultSorterCallbackReentrant(t *testing.T) {
	s := NewDefaultSorter(4)
	s.SetOnSort(func(seq uint16, packet *RtpPacket) {
		_ = s.JitterSize()
		_ = s.CycleCount()
	})
	s.SortPacket(0, &RtpPacket{Sequence: 0})
}
