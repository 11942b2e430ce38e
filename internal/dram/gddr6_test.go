package dram

import "testing"

func newTestGDDR6() *Spec {
	return NewGDDR6Spec(DefaultGDDR6Organization(), DefaultGDDR6Timing())
}

func TestColdActThenRead(t *testing.T) {
	spec := newTestGDDR6()
	dev := NewDevice(spec, nil)

	rd, _ := spec.CommandIndex("RD")
	addr := AddrHierarchy{0, 0, 0, 5, 0}

	preq := dev.GetPreqCommand(rd, addr, 0)
	act, _ := spec.CommandIndex("ACT")
	if preq != act {
		t.Fatalf("expected ACT as prerequisite for a cold bank, got %s", spec.Commands[preq])
	}

	if !dev.CheckReady(act, addr, 0) {
		t.Fatalf("ACT should be ready at clk 0 on a freshly built device")
	}
	dev.IssueCommand(act, addr, 0)

	if dev.CheckReady(rd, addr, 0) {
		t.Fatalf("RD should not be ready immediately after ACT (tRCD not elapsed)")
	}

	trcd := Clk(DefaultGDDR6Timing().TRCD)
	if !dev.CheckReady(rd, addr, trcd) {
		t.Fatalf("RD should be ready once tRCD has elapsed")
	}

	if got := dev.GetPreqCommand(rd, addr, trcd); got != rd {
		t.Fatalf("RD should need no further prerequisite once its row is open, got %s", spec.Commands[got])
	}
	if !dev.CheckRowBufferHit(rd, addr, trcd) {
		t.Fatalf("RD should be a row-buffer hit once its row is open")
	}
}

func TestRowConflictRequiresPrecharge(t *testing.T) {
	spec := newTestGDDR6()
	dev := NewDevice(spec, nil)
	act, _ := spec.CommandIndex("ACT")
	pre, _ := spec.CommandIndex("PRE")
	rd, _ := spec.CommandIndex("RD")

	addrRow5 := AddrHierarchy{0, 0, 0, 5, 0}
	addrRow6 := AddrHierarchy{0, 0, 0, 6, 0}

	dev.IssueCommand(act, addrRow5, 0)
	trcd := Clk(DefaultGDDR6Timing().TRCD)

	if got := dev.GetPreqCommand(rd, addrRow6, trcd); got != pre {
		t.Fatalf("reading a different row in an open bank should demand PRE first, got %s", spec.Commands[got])
	}
}

func TestFourActivateWindowDelaysFifthActivate(t *testing.T) {
	spec := newTestGDDR6()
	dev := NewDevice(spec, nil)
	act, _ := spec.CommandIndex("ACT")

	for bg := 0; bg < 4; bg++ {
		dev.IssueCommand(act, AddrHierarchy{0, bg, bg, 1, 0}, 0)
	}

	fifth := AddrHierarchy{0, 0, 1, 2, 0}
	timing := DefaultGDDR6Timing()
	if dev.CheckReady(act, fifth, 1) {
		t.Fatalf("a 5th ACT right after 4 back-to-back ACTs should be blocked by tFAW")
	}
	if !dev.CheckReady(act, fifth, Clk(timing.TFAW)) {
		t.Fatalf("ACT should be allowed again once tFAW has elapsed")
	}
}

func TestRefreshBlocksChannelWide(t *testing.T) {
	spec := newTestGDDR6()
	dev := NewDevice(spec, nil)
	refab, _ := spec.CommandIndex("REFab")
	act, _ := spec.CommandIndex("ACT")

	addr := AddrHierarchy{0, -1, -1, -1, -1}
	dev.IssueCommand(refab, addr, 0)

	actAddr := AddrHierarchy{0, 2, 1, 3, 0}
	if dev.CheckReady(act, actAddr, 1) {
		t.Fatalf("ACT should be blocked for the duration of tRFC")
	}

	timing := DefaultGDDR6Timing()
	if !dev.CheckReady(act, actAddr, Clk(timing.TRFC)) {
		t.Fatalf("ACT should be allowed again once tRFC has elapsed")
	}
	if dev.RefreshBusyUntil(0) == 0 {
		t.Fatalf("refreshBusyUntil should be set immediately after REFab issues")
	}

	dev.Tick(Clk(timing.TRFC))
	if dev.RefreshBusyUntil(0) != 0 {
		t.Fatalf("REFab_end should clear refreshBusyUntil once its deferred fire clock arrives")
	}
}

func TestActivateToActivateSiblingTiming(t *testing.T) {
	spec := newTestGDDR6()
	dev := NewDevice(spec, nil)
	act, _ := spec.CommandIndex("ACT")
	timing := DefaultGDDR6Timing()

	// bg0/bank0 then bg1/bank0: different bankgroups, gated by the short
	// cross-bankgroup tRRD_S.
	dev.IssueCommand(act, AddrHierarchy{0, 0, 0, 1, 0}, 0)
	crossBG := AddrHierarchy{0, 1, 0, 2, 0}
	if dev.CheckReady(act, crossBG, Clk(timing.TRRD-1)) {
		t.Fatalf("an ACT in a sibling bankgroup should be blocked until tRRD_S elapses")
	}
	if !dev.CheckReady(act, crossBG, Clk(timing.TRRD)) {
		t.Fatalf("an ACT in a sibling bankgroup should be allowed once tRRD_S has elapsed")
	}

	// bg0/bank0 then bg0/bank1: same bankgroup, different bank, gated by
	// the longer same-bankgroup tRRD_L.
	dev2 := NewDevice(spec, nil)
	dev2.IssueCommand(act, AddrHierarchy{0, 0, 0, 1, 0}, 0)
	sameBG := AddrHierarchy{0, 0, 1, 2, 0}
	if dev2.CheckReady(act, sameBG, Clk(timing.TRRDL-1)) {
		t.Fatalf("an ACT in a sibling bank of the same bankgroup should be blocked until tRRD_L elapses")
	}
	if !dev2.CheckReady(act, sameBG, Clk(timing.TRRDL)) {
		t.Fatalf("an ACT in a sibling bank of the same bankgroup should be allowed once tRRD_L has elapsed")
	}
}

func TestOpenRowsBitmask(t *testing.T) {
	spec := newTestGDDR6()
	dev := NewDevice(spec, nil)
	act, _ := spec.CommandIndex("ACT")

	if dev.OpenRows(0) != 0 {
		t.Fatalf("no banks should be open on a fresh device")
	}
	dev.IssueCommand(act, AddrHierarchy{0, 0, 0, 5, 0}, 0)
	if dev.OpenRows(0) == 0 {
		t.Fatalf("OpenRows should reflect a bank opened by ACT")
	}
}
