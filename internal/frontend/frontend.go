// Package frontend is the external request API: submit_rw and submit_pim,
// including PIM's per-channel-mask batching — issuing the same logical
// PIM operation against every channel named in a mask, each as its own
// addressed request with its own one-shot completion callback.
package frontend

import (
	"math/bits"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/memsystem"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"
)

// Wrapper is the simulator's external-facing API surface: callers never
// touch memsystem.MemorySystem or controller.Controller directly.
type Wrapper struct {
	mem      *memsystem.MemorySystem
	readCmd  int
	writeCmd int

	submitted int64
	completed int64
}

// New builds a Wrapper over mem, resolving the RD/WR command indices once
// (both shipped presets name them identically, so this never varies by
// preset).
func New(mem *memsystem.MemorySystem) (*Wrapper, error) {
	rd, ok := mem.Device.Spec.CommandIndex("RD")
	if !ok {
		return nil, simerrors.New("frontend.New", simerrors.InitializationError, "device spec has no RD command")
	}
	wr, ok := mem.Device.Spec.CommandIndex("WR")
	if !ok {
		return nil, simerrors.New("frontend.New", simerrors.InitializationError, "device spec has no WR command")
	}
	return &Wrapper{mem: mem, readCmd: rd, writeCmd: wr}, nil
}

// SubmitRW submits a single read or write at flatAddr. cb fires exactly
// once, when the request departs.
func (w *Wrapper) SubmitRW(isWrite bool, flatAddr uint64, cb func(request.Request)) error {
	t, cmd := request.TypeRead, w.readCmd
	if isWrite {
		t, cmd = request.TypeWrite, w.writeCmd
	}
	err := w.mem.Send(request.Request{
		Type:    t,
		Command: cmd,
		Callback: func(r request.Request) {
			w.completed++
			if cb != nil {
				cb(r)
			}
		},
	}, flatAddr)
	if err == nil {
		w.submitted++
	}
	return err
}

// SubmitPIM submits a PIM operation named op (a key of request.PIMFanout)
// at flatAddr, against every channel set in channelMask. Channels not
// addressed by the device (bit index ≥ channel count) are ignored. Each
// addressed channel gets its own Request and its own callback firing —
// the wrapper never aggregates completions across channels, matching the
// "one callback per address" contract.
func (w *Wrapper) SubmitPIM(bank bool, op string, channelMask uint64, flatAddr uint64, cb func(request.Request)) error {
	baseAddr, err := w.mem.Mapper.Apply(flatAddr)
	if err != nil {
		return err
	}
	return w.submitPIM(bank, op, channelMask, baseAddr, cb)
}

// SubmitPIMAddr is SubmitPIM's counterpart for callers that already have a
// full device address in hand (e.g. a trace entry whose group/all-bank PIM
// line names rank/bankgroup/row/col directly rather than a flat address).
// addr's channel slot is overwritten per channel in channelMask, same as
// SubmitPIM.
func (w *Wrapper) SubmitPIMAddr(bank bool, op string, channelMask uint64, addr dram.AddrHierarchy, cb func(request.Request)) error {
	return w.submitPIM(bank, op, channelMask, addr, cb)
}

func (w *Wrapper) submitPIM(bank bool, op string, channelMask uint64, baseAddr dram.AddrHierarchy, cb func(request.Request)) error {
	cmds, ok := request.PIMFanout[op]
	if !ok {
		return simerrors.Newf("frontend.SubmitPIM", simerrors.ConfigurationError, "unknown PIM operation %q", op)
	}
	cmd, ok := w.mem.Device.Spec.CommandIndex(cmds[0])
	if !ok {
		return simerrors.Newf("frontend.SubmitPIM", simerrors.ConfigurationError, "device spec has no %q command", cmds[0])
	}
	t := request.TypePIMNoBank
	if bank {
		t = request.TypePIMBank
	}

	numChannels := len(w.mem.Device.Channels)
	var firstErr error
	for ch := 0; ch < numChannels && ch < 64; ch++ {
		if channelMask&(1<<uint(ch)) == 0 {
			continue
		}
		addr := append(dram.AddrHierarchy(nil), baseAddr...)
		addr[0] = ch
		err := w.mem.Controllers[ch].Send(request.Request{
			Type:    t,
			Command: cmd,
			Addr:    addr,
			Callback: func(r request.Request) {
				w.completed++
				if cb != nil {
					cb(r)
				}
			},
		}, w.mem.Clk())
		if err == nil {
			w.submitted++
		} else if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ChannelMaskAll returns a mask selecting every channel the device has.
func ChannelMaskAll(numChannels int) uint64 {
	if numChannels >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(numChannels) - 1
}

// PopCount reports how many channels a mask selects, useful for callers
// wanting to know up front how many completions SubmitPIM will fire.
func PopCount(mask uint64) int { return bits.OnesCount64(mask) }

// Finalize reports the wrapper's lifetime submitted/completed counters,
// called once at run end alongside the memory system's own stats pass.
func (w *Wrapper) Finalize() (submitted, completed int64) { return w.submitted, w.completed }
