package dram

import (
	"fmt"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"
)

// Spec is a device model: level/command/state name tables plus, for every
// level, the closures that drive the timing/state/prerequisite engines at
// nodes of that level. It replaces the original's CRTP `DRAMNodeBase<T>`
// template parameter T — GDDR6Spec and LPDDR5Spec are two *Spec values
// built by two constructors, not two instantiations of a generic.
type Spec struct {
	Name string

	Levels    []string
	Commands  []string
	States    []string

	levelIndex   map[string]int
	commandIndex map[string]int
	stateIndex   map[string]int

	Org Organization

	CommandMeta []CommandMeta // indexed by command

	// ActionScope[cmd] is the level at which the command's timing, state,
	// prerequisite and readiness recursion stops: above it the recursion
	// follows the addressed child (or every child where the address holds
	// -1), and the scope node's own action covers everything beneath it;
	// AddressingLevel[cmd] is the
	// deepest level the command's address reaches (recursion also stops
	// once a node has no children, so a value past the bank level is
	// safe for row/column-targeting commands since row/column are
	// virtual, unmodeled levels).
	ActionScope     []int
	AddressingLevel []int

	Action  [][]ActionFunc  // [level][cmd]
	Preq    [][]PreqFunc    // [level][cmd]
	RowHit  [][]RowHitFunc  // [level][cmd]
	RowOpen [][]RowOpenFunc // [level][cmd]
	Power   [][]PowerFunc   // [level][cmd], always nil in both presets

	// TimingCons[level][precedingCmd] is the set of timing edges that
	// fire when precedingCmd is issued at a node of that level.
	TimingCons [][][]TimingEntry

	// HistoryWindow[level][cmd] is the ring-buffer size a node of that
	// level must keep for cmd's issue history, derived from the largest
	// Window referencing cmd as a preceding command anywhere at that
	// level.
	HistoryWindow [][]int

	CommandLatency []int // cycles from issue to data/ack, data-moving commands only; 0 otherwise

	StateOpened     int // row-open-ish state shared by bank/bankgroup/rank names, resolved per spec
	StatePrecharged int

	// RefreshCmd/RefreshEndCmd/RefreshLatency drive Device.IssueCommand's
	// automatic REFab_end scheduling: issuing RefreshCmd schedules
	// RefreshEndCmd RefreshLatency cycles later.
	RefreshCmd     int
	RefreshEndCmd  int
	RefreshLatency int
}

func nameIndex(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}

// LevelIndex/CommandIndex/StateIndex resolve a name to its table index.
// They are used only at Spec-construction time; hot-path code closes over
// the resolved int instead of calling these per tick.
func (s *Spec) LevelIndex(name string) (int, bool)   { i, ok := s.levelIndex[name]; return i, ok }
func (s *Spec) CommandIndex(name string) (int, bool) { i, ok := s.commandIndex[name]; return i, ok }
func (s *Spec) StateIndex(name string) (int, bool)   { i, ok := s.stateIndex[name]; return i, ok }

// mustIndex looks a name up and aborts (a construction-time programmer
// error, never a runtime path) if it is missing. Neither shipped preset
// builder calls it: both index commandIndex directly, so a misspelled name
// there resolves to command 0 instead of aborting.
func mustIndex(op string, m map[string]int, name string) int {
	i, ok := m[name]
	if !ok {
		simerrors.Abort(op, -1, -1, fmt.Sprintf("unknown name %q in table construction", name))
	}
	return i
}

// newSpecSkeleton fills in the name tables and allocates the per-level,
// per-command slice-of-slices every preset builder needs before wiring its
// own Action/Preq/RowHit/RowOpen/TimingCons entries.
func newSpecSkeleton(name string, levels, commands, states []string, org Organization) *Spec {
	s := &Spec{
		Name:     name,
		Levels:   levels,
		Commands: commands,
		States:   states,
		Org:      org,
	}
	s.levelIndex = nameIndex(levels)
	s.commandIndex = nameIndex(commands)
	s.stateIndex = nameIndex(states)

	nl, nc := len(levels), len(commands)
	s.CommandMeta = make([]CommandMeta, nc)
	s.ActionScope = make([]int, nc)
	s.AddressingLevel = make([]int, nc)
	s.CommandLatency = make([]int, nc)

	s.Action = make([][]ActionFunc, nl)
	s.Preq = make([][]PreqFunc, nl)
	s.RowHit = make([][]RowHitFunc, nl)
	s.RowOpen = make([][]RowOpenFunc, nl)
	s.Power = make([][]PowerFunc, nl)
	s.TimingCons = make([][][]TimingEntry, nl)
	s.HistoryWindow = make([][]int, nl)
	for l := 0; l < nl; l++ {
		s.Action[l] = make([]ActionFunc, nc)
		s.Preq[l] = make([]PreqFunc, nc)
		s.RowHit[l] = make([]RowHitFunc, nc)
		s.RowOpen[l] = make([]RowOpenFunc, nc)
		s.Power[l] = make([]PowerFunc, nc)
		s.TimingCons[l] = make([][]TimingEntry, nc)
		s.HistoryWindow[l] = make([]int, nc)
	}
	return s
}

// expandTiming expands each declaration into one TimingEntry per
// (Preceding, Following) pair and records the resulting per-(level,cmd)
// history window sizes.
func expandTiming(s *Spec, decls []TimingRuleDecl) {
	for _, d := range decls {
		window := d.Window
		if window <= 0 {
			window = 1
		}
		for _, p := range d.Preceding {
			for _, f := range d.Following {
				s.TimingCons[d.Level][p] = append(s.TimingCons[d.Level][p], TimingEntry{
					Following: f,
					Latency:   d.Latency,
					Window:    window,
					Sibling:   d.Sibling,
				})
				if window > s.HistoryWindow[d.Level][p] {
					s.HistoryWindow[d.Level][p] = window
				}
			}
		}
	}
}
