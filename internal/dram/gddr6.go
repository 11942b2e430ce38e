package dram

// GDDR6 level indices. The tree has no rank level; ACT16/PREA/MACAB-class
// "every bank in the device" commands scope at the channel.
const (
	gddr6LevelChannel = iota
	gddr6LevelBankGroup
	gddr6LevelBank
)

var gddr6Levels = []string{"channel", "bankgroup", "bank"}

var gddr6States = []string{"Closed", "Opened", "PreOpened", "Refreshing", "PowerUp", "NA"}

// gddr6Commands is the full GDDR6-AiM command set, in the original's
// print_stats order so internal/stats emits a diffable table. Commands 27
// and 28 are Open Question 1's unwired inter-bankgroup scaffolding.
var gddr6Commands = []string{
	"ACT", "PRE", "PREA", "RD", "WR", "RDA", "WRA", "REFab", "REFab_end",
	"MAC_SBK", "AF_SBK", "ACT4_BG", "PRE4_BG", "MAC4B_INTRA", "AF4B_INTRA",
	"EWMUL", "EWADD", "ACT16", "MACAB", "AFAB", "WRAFLUT", "WRBK", "WRGB",
	"WRMAC", "WRBIAS", "RDMAC", "RDAF", "MAC4B_INTER_BG", "AF4B_INTER_BG",
	"COPY_BKGB", "COPY_GBBK",
}

// GDDR6Timing holds the cycle-count parameters the GDDR6_AiM timing preset
// is built from, already resolved from nanoseconds via config's rounding
// (spec.md §4.1) by the time a Spec is constructed.
type GDDR6Timing struct {
	TRCD   int // ACT -> RD/WR
	TRP    int // PRE -> ACT
	TRAS   int // ACT -> PRE (minimum row-open time)
	TCL    int // RD issue -> data
	TCWL   int // WR issue -> data
	TBL    int // burst length, in cycles, following CAS
	TRRD   int // ACT -> ACT, different bankgroup (sibling rule, short)
	TRRDL  int // ACT -> ACT, same bankgroup (sibling rule, long)
	TFAW   int // four-activate window (Window=4 rule)
	TWTR   int // WR -> RD turnaround
	TRTW   int // RD -> WR turnaround
	TRFC   int // REFab -> REFab_end
	TPIM   int // generic per-bank PIM command latency (MAC_SBK, AF_SBK, ...)
	T4BPIM int // 4-bank PIM command latency (MAC4B_INTRA, AF4B_INTRA, ...)
	TABPIM int // all-bank PIM command latency (MACAB, AFAB, EWMUL, EWADD, ...)
}

// DefaultGDDR6Organization returns a 1-channel × 4-bankgroup × 4-bank
// layout with a 256-bit channel width, matching the GDDR6_8Gb_x16-style
// preset spec.md §4.1 names.
func DefaultGDDR6Organization() Organization {
	return Organization{
		Count:            []int{1, 4, 4},
		RowsPerBank:      1 << 14,
		ColumnsPerRow:    1 << 10,
		ChannelWidthBits: 256,
		PrefetchSize:     16,
	}
}

// DefaultGDDR6Timing returns the GDDR6_AiM timing preset referenced by
// spec.md §8 scenario S1.
func DefaultGDDR6Timing() GDDR6Timing {
	return GDDR6Timing{
		TRCD: 18, TRP: 18, TRAS: 38, TCL: 20, TCWL: 18, TBL: 2,
		TRRD: 6, TRRDL: 9, TFAW: 24, TWTR: 6, TRTW: 9, TRFC: 260,
		TPIM: 20, T4BPIM: 24, TABPIM: 32,
	}
}

// NewGDDR6Spec builds the GDDR6-AiM device model.
func NewGDDR6Spec(org Organization, t GDDR6Timing) *Spec {
	s := newSpecSkeleton("GDDR6_AiM", gddr6Levels, gddr6Commands, gddr6States, org)
	ci := s.commandIndex

	act, pre, prea := ci["ACT"], ci["PRE"], ci["PREA"]
	rd, wr, rda, wra := ci["RD"], ci["WR"], ci["RDA"], ci["WRA"]
	refab, refabEnd := ci["REFab"], ci["REFab_end"]
	act4bg, pre4bg := ci["ACT4_BG"], ci["PRE4_BG"]
	act16 := ci["ACT16"]
	macSbk, afSbk := ci["MAC_SBK"], ci["AF_SBK"]
	mac4b, af4b := ci["MAC4B_INTRA"], ci["AF4B_INTRA"]
	ewmul, ewadd := ci["EWMUL"], ci["EWADD"]
	macab, afab := ci["MACAB"], ci["AFAB"]
	wraflut, wrbk, wrgb := ci["WRAFLUT"], ci["WRBK"], ci["WRGB"]
	wrmac, wrbias := ci["WRMAC"], ci["WRBIAS"]
	rdmac, rdaf := ci["RDMAC"], ci["RDAF"]
	copyBkgb, copyGbbk := ci["COPY_BKGB"], ci["COPY_GBBK"]

	closed, opened := s.stateIndex["Closed"], s.stateIndex["Opened"]
	refreshing := s.stateIndex["Refreshing"]
	s.StateOpened, s.StatePrecharged = opened, closed
	s.RefreshCmd, s.RefreshEndCmd, s.RefreshLatency = refab, refabEnd, t.TRFC

	perBankAccess := []int{rd, wr, rda, wra, macSbk, afSbk, wrbk, wrgb, wrmac, wrbias, rdmac, rdaf, copyBkgb, copyGbbk}
	for _, c := range perBankAccess {
		s.CommandMeta[c].AccessesData = true
	}
	s.CommandMeta[act].OpensRow = true
	s.CommandMeta[act4bg].OpensRow = true
	s.CommandMeta[act16].OpensRow = true
	for _, c := range []int{pre, prea, pre4bg, rda, wra} {
		s.CommandMeta[c].ClosesRow = true
	}
	s.CommandMeta[refab].IsRefresh = true
	s.CommandMeta[refabEnd].IsRefresh = true
	for _, c := range []int{mac4b, af4b, ewmul, ewadd, macab, afab, wraflut} {
		s.CommandMeta[c].AccessesData = true
	}

	// Action scope: the level whose own action fully resolves the
	// command, and below which recursion never continues.
	bankScope := []int{act, pre, rd, wr, rda, wra, macSbk, afSbk, wrbk, wrgb, wrmac, wrbias, rdmac, rdaf, copyBkgb, copyGbbk}
	for _, c := range bankScope {
		s.ActionScope[c] = gddr6LevelBank
	}
	bgScope := []int{act4bg, pre4bg, mac4b, af4b}
	for _, c := range bgScope {
		s.ActionScope[c] = gddr6LevelBankGroup
	}
	channelScope := []int{prea, refab, refabEnd, act16, macab, afab, ewmul, ewadd, wraflut}
	for _, c := range channelScope {
		s.ActionScope[c] = gddr6LevelChannel
	}

	for c := range s.AddressingLevel {
		s.AddressingLevel[c] = gddr6LevelBank + 2 // row, then column
	}

	// --- Action wiring -------------------------------------------------
	s.Action[gddr6LevelBank][act] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		openRow(n, addr[gddr6LevelBank+1], opened)
	}
	s.Action[gddr6LevelBank][pre] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) { closeRow(n, closed) }
	s.Action[gddr6LevelBank][rda] = s.Action[gddr6LevelBank][pre]
	s.Action[gddr6LevelBank][wra] = s.Action[gddr6LevelBank][pre]
	s.Action[gddr6LevelChannel][prea] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		eachDescendantBank(n, func(b *Node) { closeRow(b, closed) })
	}
	s.Action[gddr6LevelChannel][refab] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		n.refreshBusyUntil = clk + Clk(t.TRFC)
		eachDescendantBank(n, func(b *Node) { b.state = refreshing })
	}
	s.Action[gddr6LevelChannel][refabEnd] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		n.refreshBusyUntil = 0
		eachDescendantBank(n, func(b *Node) { closeRow(b, closed) })
	}
	s.Action[gddr6LevelBankGroup][act4bg] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		row := addr[gddr6LevelBankGroup+2]
		for _, b := range n.children {
			openRow(b, row, opened)
		}
	}
	s.Action[gddr6LevelBankGroup][pre4bg] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		for _, b := range n.children {
			closeRow(b, closed)
		}
	}
	s.Action[gddr6LevelChannel][act16] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		row := addr[gddr6LevelChannel+3]
		eachDescendantBank(n, func(b *Node) { openRow(b, row, opened) })
	}

	// --- Prerequisite wiring --------------------------------------------
	bankRowOpenPreq := preqBankRequireRowOpen(act, pre, refreshing)
	for _, c := range []int{rd, wr, rda, wra, macSbk, afSbk, wrbk, wrgb, wrmac, wrbias, rdmac, rdaf, copyBkgb, copyGbbk} {
		s.Preq[gddr6LevelBank][c] = bankRowOpenPreq
	}
	bgAllOpenPreq := preqBankGroupRequireAllRowsOpen(act4bg, pre4bg, refreshing)
	for _, c := range []int{mac4b, af4b} {
		s.Preq[gddr6LevelBankGroup][c] = bgAllOpenPreq
	}
	chAllOpenPreq := preqAllBanksOpenScopeSinglePhase(act16, prea, opened, refreshing)
	for _, c := range []int{macab, afab, ewmul, ewadd, wraflut} {
		s.Preq[gddr6LevelChannel][c] = chAllOpenPreq
	}
	s.Preq[gddr6LevelChannel][refab] = preqAllBanksClosedScope(prea)

	// --- Row-hit / row-open queries --------------------------------------
	for _, c := range []int{rd, wr, rda, wra} {
		s.RowHit[gddr6LevelBank][c] = bankRowHit
		s.RowOpen[gddr6LevelBank][c] = bankRowOpen
	}

	// --- Command latencies (issue to data/ack) --------------------------
	s.CommandLatency[rd], s.CommandLatency[rda] = t.TCL+t.TBL, t.TCL+t.TBL
	s.CommandLatency[wr], s.CommandLatency[wra] = t.TCWL+t.TBL, t.TCWL+t.TBL
	for _, c := range []int{macSbk, afSbk, wrbk, wrgb, wrmac, wrbias, rdmac, rdaf, copyBkgb, copyGbbk} {
		s.CommandLatency[c] = t.TPIM
	}
	for _, c := range []int{mac4b, af4b} {
		s.CommandLatency[c] = t.T4BPIM
	}
	for _, c := range []int{macab, afab, ewmul, ewadd, wraflut} {
		s.CommandLatency[c] = t.TABPIM
	}

	// --- Timing rules ----------------------------------------------------
	expandTiming(s, []TimingRuleDecl{
		{Level: gddr6LevelBank, Preceding: []int{act}, Following: []int{rd, wr, rda, wra}, Latency: t.TRCD},
		{Level: gddr6LevelBank, Preceding: []int{act}, Following: []int{pre}, Latency: t.TRAS},
		{Level: gddr6LevelBank, Preceding: []int{pre}, Following: []int{act}, Latency: t.TRP},
		{Level: gddr6LevelBank, Preceding: []int{rda}, Following: []int{act}, Latency: t.TRAS + t.TRP},
		{Level: gddr6LevelBank, Preceding: []int{wra}, Following: []int{act}, Latency: t.TRAS + t.TRP},
		{Level: gddr6LevelBank, Preceding: []int{wr}, Following: []int{rd}, Latency: t.TCWL + t.TBL + t.TWTR},
		{Level: gddr6LevelBank, Preceding: []int{rd}, Following: []int{wr}, Latency: t.TCL + t.TBL + t.TRTW},
		{Level: gddr6LevelBankGroup, Preceding: []int{act}, Following: []int{act}, Latency: t.TRRD, Sibling: true},
		{Level: gddr6LevelBank, Preceding: []int{act}, Following: []int{act}, Latency: t.TRRDL, Sibling: true},
		{Level: gddr6LevelChannel, Preceding: []int{act}, Following: []int{act}, Latency: t.TFAW, Window: 4},
		{Level: gddr6LevelChannel, Preceding: []int{refab}, Following: []int{act, pre, prea, rd, wr, rda, wra, act4bg, pre4bg, act16, macSbk, afSbk, mac4b, af4b, macab, afab, ewmul, ewadd, wraflut}, Latency: t.TRFC},
	})

	return s
}
