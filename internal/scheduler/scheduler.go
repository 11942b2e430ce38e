// Package scheduler selects which buffered request a controller should
// try to advance next: FRFCFS (first-ready, first-come-first-served), and
// a PIM scope-group variant that keeps a multi-cycle PIM activation
// sequence from being interleaved with an unrelated request targeting an
// overlapping scope.
package scheduler

import (
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
)

// Scheduler picks the index within buf of the request the controller
// should try to advance this cycle, or -1 if none has anything useful to
// do right now.
type Scheduler interface {
	SelectNext(dev *dram.Device, buf *request.Buffer, clk dram.Clk) int
}

// readiness classifies a buffered request for FRFCFS's priority order.
type readiness int

const (
	notReady readiness = iota
	prereqReady         // the command it needs issued next (a prerequisite) can fire now
	rowHitReady         // its final command can fire now and would hit an open row
)

func classify(dev *dram.Device, r request.Request, clk dram.Clk) readiness {
	preq := dev.GetPreqCommand(r.Command, r.Addr, clk)
	if !dev.CheckReady(preq, r.Addr, clk) {
		return notReady
	}
	if preq != r.Command {
		return prereqReady
	}
	if dev.CheckRowBufferHit(r.Command, r.Addr, clk) {
		return rowHitReady
	}
	return prereqReady
}

// FRFCFS is first-ready, first-come-first-served: among requests whose
// next needed command can fire this cycle, a row-buffer hit is preferred
// over one that still needs a prerequisite; ties (and prerequisite-only
// candidates) resolve by arrival order.
type FRFCFS struct{}

// SelectNext implements Scheduler.
func (FRFCFS) SelectNext(dev *dram.Device, buf *request.Buffer, clk dram.Clk) int {
	best, bestRank := -1, notReady
	buf.Each(func(i int, r request.Request) {
		rank := classify(dev, r, clk)
		if rank == notReady {
			return
		}
		if best == -1 || rank > bestRank {
			best, bestRank = i, rank
		}
	})
	return best
}

// PIMScopeGroup wraps FRFCFS with stickiness: once it commits to a
// request whose command spans a multi-node scope (a PIM no-bank op mid
// two-phase activation), it keeps returning that same request — tracked
// by its stable Seq, since buffer compaction shifts indices — until the
// request departs, rather than letting FRFCFS's per-cycle row-hit
// preference bounce between two overlapping-scope requests and stall
// both of their activation sequences.
type PIMScopeGroup struct {
	inner    FRFCFS
	stickySeq int64
	sticky    bool
}

// NewPIMScopeGroup returns a scheduler with no in-flight sticky request.
func NewPIMScopeGroup() *PIMScopeGroup {
	return &PIMScopeGroup{}
}

// SelectNext implements Scheduler.
func (s *PIMScopeGroup) SelectNext(dev *dram.Device, buf *request.Buffer, clk dram.Clk) int {
	if s.sticky {
		idx := findSeq(buf, s.stickySeq)
		if idx >= 0 {
			return idx
		}
		s.sticky = false // the sticky request departed since last call
	}

	idx := s.inner.SelectNext(dev, buf, clk)
	if idx < 0 {
		return -1
	}
	r := buf.At(idx)
	if r.Type == request.TypePIMNoBank {
		s.sticky, s.stickySeq = true, r.Seq
	}
	return idx
}

func findSeq(buf *request.Buffer, seq int64) int {
	found := -1
	buf.Each(func(i int, r request.Request) {
		if r.Seq == seq {
			found = i
		}
	})
	return found
}
