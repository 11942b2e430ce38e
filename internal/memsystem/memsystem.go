// Package memsystem ties one dram.Device to one controller.Controller per
// channel and drives the cycle-stepped simulation loop: each Tick
// advances the device and every channel's controller together, in
// lockstep, exactly once.
package memsystem

import (
	"github.com/comsys-lab/PIM-NDP-Sim/internal/controller"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/logging"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/mapper"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/scheduler"
)

// MemorySystem is the top-level simulation object: it owns the clock, the
// device, and the per-channel controllers, and is the only thing in the
// repository that calls Tick on either.
type MemorySystem struct {
	Device      *dram.Device
	Mapper      mapper.Mapper
	Controllers []*controller.Controller
	clk         dram.Clk
	log         *logging.Logger
}

// New builds a MemorySystem with one controller per channel in dev.
func New(dev *dram.Device, mp mapper.Mapper, sched func() scheduler.Scheduler, cfg controller.Config, log *logging.Logger) *MemorySystem {
	if log == nil {
		log = logging.Default()
	}
	ctrls := make([]*controller.Controller, len(dev.Channels))
	for i := range ctrls {
		ctrls[i] = controller.New(i, dev, sched(), cfg, log)
	}
	return &MemorySystem{Device: dev, Mapper: mp, Controllers: ctrls, log: log}
}

// Send maps req's flat address through Mapper and enqueues it on the
// resulting channel's controller.
func (m *MemorySystem) Send(req request.Request, flatAddr uint64) error {
	addr, err := m.Mapper.Apply(flatAddr)
	if err != nil {
		return err
	}
	req.Addr = addr
	return m.Controllers[addr[0]].Send(req, m.clk)
}

// Tick advances the whole system by one cycle: the device first (so any
// deferred action due this cycle — e.g. a REFab_end — lands before
// controllers look at device state), then every channel's controller.
func (m *MemorySystem) Tick() {
	m.Device.Tick(m.clk)
	for _, c := range m.Controllers {
		c.Tick(m.clk)
	}
	m.clk++
}

// Clk returns the current simulation cycle.
func (m *MemorySystem) Clk() dram.Clk { return m.clk }
