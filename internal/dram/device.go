package dram

import "github.com/comsys-lab/PIM-NDP-Sim/internal/logging"

// Device is a full multi-channel DRAM device built from a Spec: one node
// tree per channel, plus the deferred-action queue shared across all of
// them (deferred entries carry their own channel in addr[0], so one queue
// is enough).
type Device struct {
	Spec     *Spec
	Channels []*Node
	deferred *DeferredQueue
	log      *logging.Logger
}

// NewDevice builds a Device's node trees, one per channel, from spec.
func NewDevice(spec *Spec, log *logging.Logger) *Device {
	if log == nil {
		log = logging.Default()
	}
	channels := make([]*Node, spec.Org.Count[0])
	for i := range channels {
		channels[i] = newNode(spec, nil, 0, i)
	}
	return &Device{Spec: spec, Channels: channels, deferred: NewDeferredQueue(), log: log}
}

// IssueCommand applies cmd's timing and state effects at addr, as of clk.
func (d *Device) IssueCommand(cmd int, addr AddrHierarchy, clk Clk) {
	ch := d.Channels[addr[0]]
	ch.UpdateTiming(cmd, addr, clk)
	ch.UpdateStates(cmd, addr, clk)
	if cmd == d.Spec.RefreshCmd {
		d.deferred.Schedule(d.Spec.RefreshEndCmd, addr, clk+Clk(d.Spec.RefreshLatency))
		d.log.Debugf("refresh issued on channel %d at clk %d, ends at %d", addr[0], clk, clk+Clk(d.Spec.RefreshLatency))
	}
}

// ScheduleDeferred queues a deferred action (e.g. REFab_end) to apply at
// fireClk.
func (d *Device) ScheduleDeferred(cmd int, addr AddrHierarchy, fireClk Clk) {
	d.deferred.Schedule(cmd, addr, fireClk)
}

// Tick applies every deferred action due at clk. It does not itself
// advance any clock — the memory system ticks the device and every
// channel's controller together, in lockstep.
func (d *Device) Tick(clk Clk) {
	for _, a := range d.deferred.Due(clk) {
		d.IssueCommand(a.cmd, a.addr, clk)
	}
}

// CheckReady, GetPreqCommand, CheckRowBufferHit, CheckNodeOpen dispatch to
// addr's channel's root node.
func (d *Device) CheckReady(cmd int, addr AddrHierarchy, clk Clk) bool {
	return d.Channels[addr[0]].CheckReady(cmd, addr, clk)
}

func (d *Device) GetPreqCommand(cmd int, addr AddrHierarchy, clk Clk) int {
	return d.Channels[addr[0]].GetPreqCommand(cmd, addr, clk)
}

func (d *Device) CheckRowBufferHit(cmd int, addr AddrHierarchy, clk Clk) bool {
	return d.Channels[addr[0]].CheckRowBufferHit(cmd, addr, clk)
}

func (d *Device) CheckNodeOpen(cmd int, addr AddrHierarchy, clk Clk) bool {
	return d.Channels[addr[0]].CheckNodeOpen(cmd, addr, clk)
}

// CommandLatency returns cmd's fixed issue-to-data/ack latency in cycles,
// 0 for commands that never carry data (ACT, PRE, ...).
func (d *Device) CommandLatency(cmd int) int { return d.Spec.CommandLatency[cmd] }

// OpenRows returns the per-bank open/closed bitmask for channel ch, one
// bit per bank in tree-traversal order.
func (d *Device) OpenRows(ch int) uint64 { return openRowsBitmask(d.Channels[ch]) }

// RefreshBusyUntil returns the clock at or after which channel ch is no
// longer mid-refresh, 0 if it is not currently refreshing.
// The refresh scope may sit below the channel (a rank on LPDDR5), so the
// latest marker anywhere in the channel's tree is reported.
func (d *Device) RefreshBusyUntil(ch int) Clk {
	var until Clk
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.refreshBusyUntil > until {
			until = n.refreshBusyUntil
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(d.Channels[ch])
	return until
}
