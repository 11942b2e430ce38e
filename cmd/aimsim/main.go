// Command aimsim runs a trace-driven simulation against a configured DRAM
// device and prints a YAML statistics report.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/config"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/controller"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/frontend"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/logging"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/mapper"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/memsystem"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/scheduler"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/stats"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "aimsim:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:   "aimsim",
		Short: "cycle-accurate DRAM/PIM memory simulator",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML configuration file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	root.MarkPersistentFlagRequired("config")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		return simulate(configPath, verbose)
	}

	return root.Execute()
}

// simulate wires config → device → memory system → trace/frontend and
// runs the loaded trace to completion, recovering only a
// simerrors.Assertion panic (a programmer-error invariant violation) into
// a clean diagnostic exit rather than a bare stack trace.
func simulate(configPath string, verbose bool) (err error) {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	log := logging.New(logging.Config{Level: level})

	defer func() {
		if r := recover(); r != nil {
			if aerr, ok := simerrors.Recovered(r); ok {
				err = aerr
				return
			}
			panic(r)
		}
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	spec, org, err := buildSpec(cfg)
	if err != nil {
		return err
	}

	dev := dram.NewDevice(spec, log)

	levels := spec.Levels
	var mp mapper.Mapper
	switch cfg.MemorySystem.Mapper {
	case "CRBRC":
		mp = mapper.NewLinearChannelRankBankRowColumn(levels, org)
	case "RBRCCh":
		mp = mapper.NewLinearRowBankRankColumnChannel(levels, org)
	case "MOP4CLXOR":
		mp = mapper.NewMOP4CLXOR()
	case "RoBaRaCoCh":
		mp = mapper.NewRoBaRaCoCh()
	}

	ctrlCfg := controller.DefaultConfig()
	if cfg.Controller.BufferCapacity > 0 {
		ctrlCfg.BufferCapacity = cfg.Controller.BufferCapacity
	}
	if cfg.Controller.HighWatermark > 0 {
		ctrlCfg.HighWatermark = cfg.Controller.HighWatermark
	}
	if cfg.Controller.LowWatermark > 0 {
		ctrlCfg.LowWatermark = cfg.Controller.LowWatermark
	}

	mem := memsystem.New(dev, mp, func() scheduler.Scheduler { return scheduler.NewPIMScopeGroup() }, ctrlCfg, log)

	wrapper, err := frontend.New(mem)
	if err != nil {
		return err
	}

	if cfg.MemorySystem.Trace != "" {
		if err := runTrace(mem, wrapper, cfg.MemorySystem.Trace, log); err != nil {
			return err
		}
	}

	return stats.WriteYAML(os.Stdout, stats.Collect(spec, mem.Controllers))
}

func buildSpec(cfg *config.Config) (*dram.Spec, dram.Organization, error) {
	switch cfg.Device.Preset {
	case "GDDR6_AiM":
		org := dram.DefaultGDDR6Organization()
		t := dram.DefaultGDDR6Timing()
		applyGDDR6Overrides(&t, cfg)
		return dram.NewGDDR6Spec(org, t), org, nil
	case "LPDDR5_AiM":
		org := dram.DefaultLPDDR5Organization()
		t := dram.DefaultLPDDR5Timing()
		applyLPDDR5Overrides(&t, cfg)
		return dram.NewLPDDR5Spec(org, t), org, nil
	default:
		return nil, dram.Organization{}, simerrors.Newf("buildSpec", simerrors.ConfigurationError, "unknown device preset %q", cfg.Device.Preset)
	}
}

func applyGDDR6Overrides(t *dram.GDDR6Timing, cfg *config.Config) {
	fields := map[string]*int{
		"trcd": &t.TRCD, "trp": &t.TRP, "tras": &t.TRAS, "tcl": &t.TCL, "tcwl": &t.TCWL,
		"tbl": &t.TBL, "trrd": &t.TRRD, "trrdl": &t.TRRDL, "tfaw": &t.TFAW,
		"twtr": &t.TWTR, "trtw": &t.TRTW, "trfc": &t.TRFC,
	}
	for name, ov := range cfg.Device.Overrides {
		if dst, ok := fields[name]; ok {
			*dst = config.ResolveCycles(ov, cfg.Device.TCKPicos)
		}
	}
}

func applyLPDDR5Overrides(t *dram.LPDDR5Timing, cfg *config.Config) {
	fields := map[string]*int{
		"trcd1": &t.TRCD1, "trcd2": &t.TRCD2, "trp": &t.TRP, "tras": &t.TRAS,
		"tcl": &t.TCL, "tcwl": &t.TCWL, "tbl": &t.TBL, "trrd": &t.TRRD,
		"trrdl": &t.TRRDL, "tfaw": &t.TFAW, "twtr": &t.TWTR, "trtw": &t.TRTW, "trfc": &t.TRFC,
	}
	for name, ov := range cfg.Device.Overrides {
		if dst, ok := fields[name]; ok {
			*dst = config.ResolveCycles(ov, cfg.Device.TCKPicos)
		}
	}
}

// runTrace loads and replays trace entries against mem/wrapper, ticking
// the simulation forward one cycle at a time until every request has been
// submitted and the device has gone idle.
func runTrace(mem *memsystem.MemorySystem, wrapper *frontend.Wrapper, path string, log *logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return simerrors.Wrap("runTrace", simerrors.TraceFormatError, err)
	}
	defer f.Close()

	entries, err := trace.Parse(f)
	if err != nil {
		return err
	}

	numLevels := len(mem.Device.Spec.Levels)
	i := 0
	for i < len(entries) || pendingOutstanding(wrapper) {
		for i < len(entries) {
			e := entries[i]
			var submitErr error
			switch e.Type {
			case request.TypeRead:
				submitErr = wrapper.SubmitRW(false, e.FlatAddr, nil)
			case request.TypeWrite:
				submitErr = wrapper.SubmitRW(true, e.FlatAddr, nil)
			case request.TypePIMBank:
				submitErr = wrapper.SubmitPIM(true, e.Op, e.ChannelMask, e.FlatAddr, nil)
			case request.TypePIMNoBank:
				if e.Fanout == trace.FanoutNone {
					submitErr = wrapper.SubmitPIM(false, e.Op, e.ChannelMask, 0, nil)
				} else {
					submitErr = wrapper.SubmitPIMAddr(false, e.Op, e.ChannelMask, groupAddr(e, numLevels), nil)
				}
			}
			if submitErr != nil {
				break // buffer full this cycle; retry after ticking
			}
			i++
		}
		mem.Tick()
	}
	return nil
}

// groupAddr builds a full device address for a group/all-bank trace entry
// from its rank/pch/bank_or_mask/row/col fields. The channel slot is a
// placeholder, overwritten per channel by SubmitPIMAddr. Middle levels
// (everything between channel and bank) are filled in order from
// rank/pch/bank_or_mask, trimmed to however many the device actually has —
// on GDDR6 (no rank level) that drops the rank field and keeps pch as the
// bankgroup selector.
func groupAddr(e trace.Entry, numLevels int) dram.AddrHierarchy {
	middle := []int{e.Rank, e.Pch, e.BankAddrOrMask}
	skip := len(middle) - (numLevels - 1)
	if skip < 0 {
		skip = 0
	}
	middle = middle[skip:]

	addr := make(dram.AddrHierarchy, numLevels+2)
	addr[0] = 0
	copy(addr[1:], middle)
	addr[numLevels] = e.Row
	addr[numLevels+1] = e.Col
	return addr
}

func pendingOutstanding(w *frontend.Wrapper) bool {
	submitted, completed := w.Finalize()
	return submitted > completed
}
