package scheduler

import (
	"testing"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
)

func newTestDevice() *dram.Device {
	spec := dram.NewGDDR6Spec(dram.DefaultGDDR6Organization(), dram.DefaultGDDR6Timing())
	return dram.NewDevice(spec, nil)
}

func TestFRFCFSPrefersRowHitOverPrereq(t *testing.T) {
	dev := newTestDevice()
	spec := dev.Spec
	act, _ := spec.CommandIndex("ACT")
	rd, _ := spec.CommandIndex("RD")

	// Open row 0 in bank (0,0,0) so a read targeting it is a row-buffer hit.
	dev.IssueCommand(act, dram.AddrHierarchy{0, 0, 0, 0, 0}, 0)
	timing := dram.DefaultGDDR6Timing()
	clk := dram.Clk(timing.TRCD)

	buf := request.NewBuffer(4)
	_ = buf.Push(request.Request{Seq: 1, Type: request.TypeRead, Command: rd, Addr: dram.AddrHierarchy{0, 1, 1, 0, 0}})
	_ = buf.Push(request.Request{Seq: 2, Type: request.TypeRead, Command: rd, Addr: dram.AddrHierarchy{0, 0, 0, 0, 0}})

	sched := FRFCFS{}
	idx := sched.SelectNext(dev, buf, clk)
	if idx != 1 {
		t.Fatalf("expected the row-hit request (index 1) to win, got %d", idx)
	}
}

func TestFRFCFSReturnsNegativeOneWhenNothingReady(t *testing.T) {
	dev := newTestDevice()
	spec := dev.Spec
	rd, _ := spec.CommandIndex("RD")
	act, _ := spec.CommandIndex("ACT")
	dev.IssueCommand(act, dram.AddrHierarchy{0, 0, 0, 0, 0}, 0)

	buf := request.NewBuffer(1)
	_ = buf.Push(request.Request{Seq: 1, Type: request.TypeRead, Command: rd, Addr: dram.AddrHierarchy{0, 0, 0, 1, 0}})

	sched := FRFCFS{}
	if idx := sched.SelectNext(dev, buf, 0); idx != -1 {
		t.Fatalf("expected no candidate ready at clk 0 (row conflict needs PRE first), got %d", idx)
	}
}

func TestPIMScopeGroupStaysStickyToSameSeq(t *testing.T) {
	dev := newTestDevice()
	spec := dev.Spec
	macab, _ := spec.CommandIndex("MACAB")
	rd, _ := spec.CommandIndex("RD")

	buf := request.NewBuffer(4)
	_ = buf.Push(request.Request{Seq: 10, Type: request.TypePIMNoBank, Command: macab, Addr: dram.AddrHierarchy{0, 0, 0, 0, 5}})

	sched := NewPIMScopeGroup()
	first := sched.SelectNext(dev, buf, 0)
	if first != 0 {
		t.Fatalf("expected the only buffered request to be selected, got %d", first)
	}
	if !sched.sticky || sched.stickySeq != 10 {
		t.Fatalf("expected scheduler to stick to seq 10 after selecting a PIM no-bank request")
	}

	// Insert a new request ahead of it in buffer order; stickiness should
	// still return the original request by Seq, not buffer index 0.
	buf2 := request.NewBuffer(4)
	_ = buf2.Push(request.Request{Seq: 20, Type: request.TypeRead, Command: rd, Addr: dram.AddrHierarchy{0, 1, 1, 1, 0}})
	_ = buf2.Push(request.Request{Seq: 10, Type: request.TypePIMNoBank, Command: macab, Addr: dram.AddrHierarchy{0, 0, 0, 0, 5}})

	idx := sched.SelectNext(dev, buf2, 1)
	if idx != 1 {
		t.Fatalf("expected sticky selection to follow seq 10 to its new index 1, got %d", idx)
	}
}

func TestPIMScopeGroupReleasesStickyOnceDeparted(t *testing.T) {
	dev := newTestDevice()
	spec := dev.Spec
	macab, _ := spec.CommandIndex("MACAB")
	rd, _ := spec.CommandIndex("RD")

	buf := request.NewBuffer(4)
	_ = buf.Push(request.Request{Seq: 10, Type: request.TypePIMNoBank, Command: macab, Addr: dram.AddrHierarchy{0, 0, 0, 0, 5}})
	sched := NewPIMScopeGroup()
	sched.SelectNext(dev, buf, 0)

	empty := request.NewBuffer(4)
	_ = empty.Push(request.Request{Seq: 99, Type: request.TypeRead, Command: rd, Addr: dram.AddrHierarchy{0, 1, 1, 1, 0}})
	idx := sched.SelectNext(dev, empty, 1)
	if sched.sticky {
		t.Fatalf("sticky flag should clear once the sticky seq is no longer in the buffer")
	}
	_ = idx
}
