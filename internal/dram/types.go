// Package dram implements the hierarchical DRAM state/timing engine: a
// mutable node tree mirroring a device's organization (channel → [rank] →
// bankgroup → bank), a timing engine that enforces JEDEC-style
// command-to-command latency windows, a state engine that opens/closes
// rows and transitions bank/bankgroup/rank state, and a prerequisite
// resolver that, given a desired final command, returns the next command
// that must be issued to make it legal.
package dram

// Clk is a device cycle count.
type Clk int64

// AddrHierarchy is a request's address broken into per-level indices,
// indexed by Level. A level the command does not address holds -1.
type AddrHierarchy []int

// CommandMeta carries the four booleans every command's metadata entry
// always has, independent of device model.
type CommandMeta struct {
	OpensRow     bool
	ClosesRow    bool
	AccessesData bool
	IsRefresh    bool
}

// ActionFunc applies a command's per-level state-engine effect (row
// open/close, bank/bankgroup/rank state transition) to n.
type ActionFunc func(n *Node, cmd int, addr AddrHierarchy, clk Clk)

// PreqFunc is a level-specific prerequisite resolver. It returns -1 when
// nothing at this level stands in the way (recursion continues to
// children); any other value ends the recursion and is the answer: the
// command that must be issued next, or cmd itself (returned while a bank
// is refreshing, leaving the timing engine to hold cmd back).
type PreqFunc func(n *Node, cmd int, addr AddrHierarchy, clk Clk) int

// RowHitFunc/RowOpenFunc are level-specific predicates used by the
// row-hit and row-open queries. targetChildID is addr[n.level+1], i.e.
// which child (if any) the query is aimed at.
type RowHitFunc func(n *Node, cmd int, targetChildID int, clk Clk) bool
type RowOpenFunc func(n *Node, cmd int, targetChildID int, clk Clk) bool

// PowerFunc is a power-model hook. Both shipped presets leave every entry
// nil; it exists only so Spec's shape stays extensible, mirroring the
// original's always-off m_drampower_enable path. Power modeling beyond
// this stub is an explicit Non-goal.
type PowerFunc func(n *Node, cmd int, addr AddrHierarchy, clk Clk)

// TimingEntry is one expanded timing-rule edge: after the preceding
// command (the map key it is stored under) is issued at a node, Following
// becomes ready no earlier than the Window-th most recent issue of the
// preceding command, plus Latency — at this node, or, if Sibling, at every
// *other* child of this node's parent.
type TimingEntry struct {
	Following int
	Latency   int
	Window    int
	Sibling   bool
}

// TimingRuleDecl is the declarative form timing tables are authored in:
// one row expands to the cross product of Preceding × Following.
type TimingRuleDecl struct {
	Level     int
	Preceding []int
	Following []int
	Latency   int
	Window    int // 0 means "1" (no extra history beyond the most recent issue)
	Sibling   bool
}

// Organization is a device's per-node-level element counts (indexed by
// Level, used to build the node tree) plus the two address components
// that never get a node of their own — row and column — and the
// per-channel bus width and internal prefetch size, in elements per burst.
type Organization struct {
	Count            []int // indexed by Level
	RowsPerBank      int
	ColumnsPerRow    int
	ChannelWidthBits int
	PrefetchSize     int
}
