package frontend

import (
	"testing"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/controller"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/mapper"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/memsystem"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/scheduler"
)

func newTestWrapper(t *testing.T) (*Wrapper, *memsystem.MemorySystem) {
	t.Helper()
	spec := dram.NewGDDR6Spec(dram.DefaultGDDR6Organization(), dram.DefaultGDDR6Timing())
	dev := dram.NewDevice(spec, nil)
	mp := mapper.NewLinearChannelRankBankRowColumn(spec.Levels, spec.Org)
	mem := memsystem.New(dev, mp, func() scheduler.Scheduler { return scheduler.FRFCFS{} }, controller.DefaultConfig(), nil)
	w, err := New(mem)
	if err != nil {
		t.Fatalf("unexpected error building wrapper: %v", err)
	}
	return w, mem
}

func TestSubmitRWCompletesAndTallies(t *testing.T) {
	w, mem := newTestWrapper(t)
	var done bool
	if err := w.SubmitRW(false, 0, func(request.Request) { done = true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 200 && !done; i++ {
		mem.Tick()
	}
	if !done {
		t.Fatalf("expected the read to complete within 200 cycles")
	}
	submitted, completed := w.Finalize()
	if submitted != 1 || completed != 1 {
		t.Fatalf("expected 1 submitted and 1 completed, got %d/%d", submitted, completed)
	}
}

func TestSubmitPIMFansOutAcrossChannelMask(t *testing.T) {
	w, mem := newTestWrapper(t)
	numChannels := len(mem.Device.Channels)
	mask := ChannelMaskAll(numChannels)
	if PopCount(mask) != numChannels {
		t.Fatalf("expected ChannelMaskAll to select every channel, got popcount %d for %d channels", PopCount(mask), numChannels)
	}

	callbacks := 0
	if err := w.SubmitPIM(false, "macab", mask, 0, func(request.Request) { callbacks++ }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 200 && callbacks < numChannels; i++ {
		mem.Tick()
	}
	if callbacks != numChannels {
		t.Fatalf("expected one callback per channel (%d), got %d", numChannels, callbacks)
	}
}

func TestSubmitPIMRejectsUnknownOp(t *testing.T) {
	w, _ := newTestWrapper(t)
	if err := w.SubmitPIM(false, "not_a_real_op", 1, 0, nil); err == nil {
		t.Fatalf("expected an error for an unknown PIM operation")
	}
}
