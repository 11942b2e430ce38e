// Package controller implements the per-channel memory controller: the
// buffer set a request lands in, the write-mode watermark toggle,
// read-after-write forwarding, and the single-request-at-a-time
// "active" slot that advances a request through however many DRAM
// commands its prerequisite chain demands before it departs.
//
// Grounded on
// original_source/src/aimulator/src/dram_controller/impl/AiM_controller_done.cpp.
package controller

import (
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/logging"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/scheduler"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"
)

// Config controls buffer capacities and the write-mode watermarks.
type Config struct {
	BufferCapacity int
	HighWatermark  int // write buffer length at which the controller switches to write-priority mode
	LowWatermark   int // write buffer length at which it switches back to read-priority mode
	BlockWarnAfter dram.Clk // cycles an active request may sit before a "possible block" warning fires
}

// DefaultConfig returns reasonable buffer sizing for a single channel.
func DefaultConfig() Config {
	return Config{BufferCapacity: 64, HighWatermark: 48, LowWatermark: 16, BlockWarnAfter: 1000}
}

// Controller is the per-channel scheduler-and-buffer-set driving one
// dram.Device channel.
type Controller struct {
	channel int
	dev     *dram.Device
	sched   scheduler.Scheduler
	cfg     Config
	log     *logging.Logger

	priority   *request.Buffer // read-after-write forwarded completions, one cycle out
	read       *request.Buffer
	write      *request.Buffer
	pimBank    *request.Buffer
	pimNoBank  *request.Buffer

	active      *request.Request // the single request currently being advanced through its command chain
	activeSince dram.Clk
	warned      bool

	finishing []request.Request // requests whose final command has issued, waiting to depart

	writeMode bool
	nextSeq   int64

	commandCounts     []int64
	idleCycles        int64
	activeCycles      int64
	prechargedCycles  int64
	requestTypeCycles map[request.Type]int64 // sum of (depart - arrive) per type
	requestTypeCount  map[request.Type]int64
}

// New builds a Controller for channel, driving dev.
func New(channel int, dev *dram.Device, sched scheduler.Scheduler, cfg Config, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.Default()
	}
	return &Controller{
		channel:   channel,
		dev:       dev,
		sched:     sched,
		cfg:       cfg,
		log:       log.Named("controller"),
		priority:  request.NewBuffer(cfg.BufferCapacity),
		read:      request.NewBuffer(cfg.BufferCapacity),
		write:     request.NewBuffer(cfg.BufferCapacity),
		pimBank:   request.NewBuffer(cfg.BufferCapacity),
		pimNoBank: request.NewBuffer(cfg.BufferCapacity),

		commandCounts:     make([]int64, len(dev.Spec.Commands)),
		requestTypeCycles: make(map[request.Type]int64),
		requestTypeCount:  make(map[request.Type]int64),
	}
}

func isPIMType(t request.Type) bool {
	return t == request.TypePIMBank || t == request.TypePIMNoBank
}

// Send enqueues r, returning simerrors.ResourceExhausted if the relevant
// buffer is full or if r's family (RW vs PIM) conflicts with in-flight
// traffic of the other family — the controller never interleaves normal
// and PIM command streams against the same channel.
func (c *Controller) Send(r request.Request, clk dram.Clk) error {
	if isPIMType(r.Type) {
		if !c.read.Empty() || !c.write.Empty() {
			return simerrors.New("Controller.Send", simerrors.ResourceExhausted, "RW traffic in flight, PIM request rejected")
		}
	} else {
		if !c.pimBank.Empty() || !c.pimNoBank.Empty() {
			return simerrors.New("Controller.Send", simerrors.ResourceExhausted, "PIM traffic in flight, RW request rejected")
		}
	}

	if r.Type == request.TypeRead {
		if c.hasInFlightWrite(r.Addr) {
			r.Seq = c.nextSeq
			c.nextSeq++
			r.ArriveAt = clk
			r.DepartAt = clk + 1
			return c.priority.Push(r)
		}
	}

	r.Seq = c.nextSeq
	c.nextSeq++
	r.ArriveAt = clk

	switch r.Type {
	case request.TypeRead:
		return c.read.Push(r)
	case request.TypeWrite:
		return c.write.Push(r)
	case request.TypePIMBank:
		return c.pimBank.Push(r)
	case request.TypePIMNoBank:
		return c.pimNoBank.Push(r)
	default:
		return simerrors.Newf("Controller.Send", simerrors.ConfigurationError, "unknown request type %v", r.Type)
	}
}

// hasInFlightWrite reports whether a write to the same address is still
// queued or active, in which case a fresh read forwards from it instead
// of waiting for its own bank access.
func (c *Controller) hasInFlightWrite(addr dram.AddrHierarchy) bool {
	found := false
	c.write.Each(func(_ int, r request.Request) {
		if addrEqual(r.Addr, addr) {
			found = true
		}
	})
	if !found && c.active != nil && c.active.Type == request.TypeWrite && addrEqual(c.active.Addr, addr) {
		found = true
	}
	return found
}

func addrEqual(a, b dram.AddrHierarchy) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// updateWriteMode applies the watermark toggle: once the write buffer
// reaches HighWatermark the controller prioritizes writes until it has
// drained back down to LowWatermark.
func (c *Controller) updateWriteMode() {
	if !c.writeMode && c.write.Len() >= c.cfg.HighWatermark {
		c.writeMode = true
	} else if c.writeMode && c.write.Len() <= c.cfg.LowWatermark {
		c.writeMode = false
	}
}

// Tick advances the controller by one cycle at the shared simulation
// clock clk: it serves anything that has departed, advances (or starts)
// the active request, and updates idle/active/precharged stats.
func (c *Controller) Tick(clk dram.Clk) {
	c.serveForwarded(clk)
	c.serveFinishing(clk)

	if c.active != nil {
		c.advanceActive(clk)
	}
	if c.active == nil {
		c.updateWriteMode()
		c.startNext(clk)
	}

	c.tallyCycle(clk)
}

func (c *Controller) serveForwarded(clk dram.Clk) {
	var done []int
	c.priority.Each(func(i int, r request.Request) {
		if r.DepartAt <= clk {
			done = append(done, i)
		}
	})
	for i := len(done) - 1; i >= 0; i-- {
		r := c.priority.At(done[i])
		c.priority.Remove(done[i])
		c.recordDeparture(r)
		if r.Callback != nil {
			r.Callback(r)
		}
	}
}

func (c *Controller) serveFinishing(clk dram.Clk) {
	remaining := c.finishing[:0]
	for _, r := range c.finishing {
		if r.DepartAt <= clk {
			c.recordDeparture(r)
			if r.Callback != nil {
				r.Callback(r)
			}
		} else {
			remaining = append(remaining, r)
		}
	}
	c.finishing = remaining
}

func (c *Controller) recordDeparture(r request.Request) {
	c.requestTypeCycles[r.Type] += int64(r.DepartAt - r.ArriveAt)
	c.requestTypeCount[r.Type]++
}

// advanceActive issues whatever command the active request's prerequisite
// chain currently calls for, if the timing engine allows it this cycle;
// once the request's own final command fires, it moves to the finishing
// queue and the active slot frees up.
func (c *Controller) advanceActive(clk dram.Clk) {
	r := c.active
	if !c.warned && clk-c.activeSince > c.cfg.BlockWarnAfter {
		c.log.Warnf("channel %d: request possibly blocked, active since %d (now %d)", c.channel, c.activeSince, clk)
		c.warned = true
	}

	cmd := c.dev.GetPreqCommand(r.Command, r.Addr, clk)
	if !c.dev.CheckReady(cmd, r.Addr, clk) {
		return
	}
	c.dev.IssueCommand(cmd, r.Addr, clk)
	c.commandCounts[cmd]++

	if cmd == r.Command {
		r.DepartAt = clk + dram.Clk(c.dev.CommandLatency(cmd))
		c.finishing = append(c.finishing, *r)
		c.active = nil
	}
}

// startNext picks the next request to start advancing, in the original's
// documented priority order: priority (forwarded reads are handled
// separately above; nothing else ever lands here) → pim_bank →
// pim_no_bank → write/read, ordered by the current watermark mode.
func (c *Controller) startNext(clk dram.Clk) {
	order := []*request.Buffer{c.pimBank, c.pimNoBank}
	if c.writeMode {
		order = append(order, c.write, c.read)
	} else {
		order = append(order, c.read, c.write)
	}

	for _, buf := range order {
		if buf.Empty() {
			continue
		}
		idx := c.sched.SelectNext(c.dev, buf, clk)
		if idx < 0 {
			continue
		}
		r := buf.At(idx)
		cmd := c.dev.GetPreqCommand(r.Command, r.Addr, clk)
		if !c.dev.CheckReady(cmd, r.Addr, clk) {
			continue
		}
		buf.Remove(idx)
		c.dev.IssueCommand(cmd, r.Addr, clk)
		c.commandCounts[cmd]++
		if cmd == r.Command {
			r.DepartAt = clk + dram.Clk(c.dev.CommandLatency(cmd))
			c.finishing = append(c.finishing, r)
		} else {
			c.active = &r
			c.activeSince = clk
			c.warned = false
		}
		return
	}
}

func (c *Controller) tallyCycle(clk dram.Clk) {
	if c.active != nil {
		c.activeCycles++
		return
	}
	if c.dev.OpenRows(c.channel) != 0 {
		c.activeCycles++
	} else {
		c.prechargedCycles++
	}
	if c.read.Empty() && c.write.Empty() && c.pimBank.Empty() && c.pimNoBank.Empty() && c.priority.Empty() {
		c.idleCycles++
	}
}

// CommandCounts, IdleCycles, ActiveCycles, PrechargedCycles, and
// RequestTypeCycles/RequestTypeCount expose the counters internal/stats
// renders; see Collect in internal/stats for how per-channel controllers
// feed the run-level YAML document.
func (c *Controller) CommandCounts() []int64          { return c.commandCounts }
func (c *Controller) IdleCycles() int64               { return c.idleCycles }
func (c *Controller) ActiveCycles() int64              { return c.activeCycles }
func (c *Controller) PrechargedCycles() int64          { return c.prechargedCycles }
func (c *Controller) RequestTypeCycles() map[request.Type]int64 { return c.requestTypeCycles }
func (c *Controller) RequestTypeCount() map[request.Type]int64  { return c.requestTypeCount }
