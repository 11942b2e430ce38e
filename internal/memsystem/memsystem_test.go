package memsystem

import (
	"testing"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/controller"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/mapper"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/scheduler"
)

func newTestSystem(t *testing.T) *MemorySystem {
	t.Helper()
	spec := dram.NewGDDR6Spec(dram.DefaultGDDR6Organization(), dram.DefaultGDDR6Timing())
	dev := dram.NewDevice(spec, nil)
	mp := mapper.NewLinearChannelRankBankRowColumn(spec.Levels, spec.Org)
	return New(dev, mp, func() scheduler.Scheduler { return scheduler.FRFCFS{} }, controller.DefaultConfig(), nil)
}

func TestSendRoutesToTheMappedChannel(t *testing.T) {
	m := newTestSystem(t)
	rd, _ := m.Device.Spec.CommandIndex("RD")

	if err := m.Send(request.Request{Type: request.TypeRead, Command: rd}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A single-channel device means every address maps to channel 0;
	// ticking should make progress on the request without error.
	m.Tick()
	if m.Controllers[0] == nil {
		t.Fatalf("expected a controller to exist for channel 0")
	}
}

func TestTickAdvancesClockByOneCycle(t *testing.T) {
	m := newTestSystem(t)
	if m.Clk() != 0 {
		t.Fatalf("expected a fresh system to start at clk 0")
	}
	m.Tick()
	if m.Clk() != 1 {
		t.Fatalf("expected Tick to advance the clock by exactly one cycle, got %d", m.Clk())
	}
}

func TestReadEventuallyCompletesThroughTheWholeStack(t *testing.T) {
	m := newTestSystem(t)
	rd, _ := m.Device.Spec.CommandIndex("RD")

	var done bool
	req := request.Request{Type: request.TypeRead, Command: rd, Callback: func(request.Request) { done = true }}
	if err := m.Send(req, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 200 && !done; i++ {
		m.Tick()
	}
	if !done {
		t.Fatalf("expected the read request to complete within 200 cycles")
	}
}
