package dram

// LPDDR5 level indices. Unlike GDDR6, activation fans out through an
// explicit rank level, and ACT/ACT16 are split into a two-phase ACT-1
// (latch) / ACT-2 (resync) sequence, grounded on
// original_source/src/aimulator/src/dram/impl/AiM_LPDDR5.cpp.
const (
	lpddr5LevelChannel = iota
	lpddr5LevelRank
	lpddr5LevelBankGroup
	lpddr5LevelBank
)

var lpddr5Levels = []string{"channel", "rank", "bankgroup", "bank"}

var lpddr5States = []string{"Closed", "Opened", "PreOpened", "Refreshing", "PowerUp", "NA"}

var lpddr5Commands = []string{
	"ACT-1", "ACT-2", "PRE", "PREA", "RD", "WR", "RDA", "WRA", "REFab", "REFab_end",
	"MAC_SBK", "AF_SBK", "ACT4_BG", "PRE4_BG", "MAC4B_INTRA", "AF4B_INTRA",
	"EWMUL", "EWADD", "ACT16-1", "ACT16-2", "MACAB", "AFAB", "WRAFLUT", "WRBK", "WRGB",
	"WRMAC", "WRBIAS", "RDMAC", "RDAF", "MAC4B_INTER_BG", "AF4B_INTER_BG",
	"COPY_BKGB", "COPY_GBBK",
}

// LPDDR5Timing holds the cycle-count parameters the LPDDR5_AiM timing
// preset is built from, already resolved to cycles.
type LPDDR5Timing struct {
	TRCD1  int // ACT-1 -> ACT-2
	TRCD2  int // ACT-2 -> RD/WR (post-resync)
	TRP    int
	TRAS   int
	TCL    int
	TCWL   int
	TBL    int
	TRRD   int // ACT -> ACT, different bankgroup (sibling rule, short)
	TRRDL  int // ACT -> ACT, same bankgroup (sibling rule, long)
	TFAW   int
	TWTR   int
	TRTW   int
	TRFC   int
	TPIM   int
	T4BPIM int
	TABPIM int
}

// DefaultLPDDR5Organization returns a 1-channel × 2-rank × 4-bankgroup ×
// 4-bank layout, matching the LPDDR5_16Gb-style preset.
func DefaultLPDDR5Organization() Organization {
	return Organization{
		Count:            []int{1, 2, 4, 4},
		RowsPerBank:      1 << 16,
		ColumnsPerRow:    1 << 10,
		ChannelWidthBits: 32,
		PrefetchSize:     16,
	}
}

// DefaultLPDDR5Timing returns the LPDDR5_AiM timing preset referenced by
// spec.md §8 scenario S1.
func DefaultLPDDR5Timing() LPDDR5Timing {
	return LPDDR5Timing{
		TRCD1: 10, TRCD2: 8, TRP: 18, TRAS: 42, TCL: 22, TCWL: 20, TBL: 4,
		TRRD: 8, TRRDL: 12, TFAW: 30, TWTR: 8, TRTW: 10, TRFC: 280,
		TPIM: 22, T4BPIM: 26, TABPIM: 36,
	}
}

// NewLPDDR5Spec builds the LPDDR5-AiM device model.
func NewLPDDR5Spec(org Organization, t LPDDR5Timing) *Spec {
	s := newSpecSkeleton("LPDDR5_AiM", lpddr5Levels, lpddr5Commands, lpddr5States, org)
	ci := s.commandIndex

	act1, act2 := ci["ACT-1"], ci["ACT-2"]
	pre, prea := ci["PRE"], ci["PREA"]
	rd, wr, rda, wra := ci["RD"], ci["WR"], ci["RDA"], ci["WRA"]
	refab, refabEnd := ci["REFab"], ci["REFab_end"]
	act4bg, pre4bg := ci["ACT4_BG"], ci["PRE4_BG"]
	act16_1, act16_2 := ci["ACT16-1"], ci["ACT16-2"]
	macSbk, afSbk := ci["MAC_SBK"], ci["AF_SBK"]
	mac4b, af4b := ci["MAC4B_INTRA"], ci["AF4B_INTRA"]
	ewmul, ewadd := ci["EWMUL"], ci["EWADD"]
	macab, afab := ci["MACAB"], ci["AFAB"]
	wraflut, wrbk, wrgb := ci["WRAFLUT"], ci["WRBK"], ci["WRGB"]
	wrmac, wrbias := ci["WRMAC"], ci["WRBIAS"]
	rdmac, rdaf := ci["RDMAC"], ci["RDAF"]
	copyBkgb, copyGbbk := ci["COPY_BKGB"], ci["COPY_GBBK"]

	closed, opened := s.stateIndex["Closed"], s.stateIndex["Opened"]
	preOpened := s.stateIndex["PreOpened"]
	refreshing := s.stateIndex["Refreshing"]
	s.StateOpened, s.StatePrecharged = opened, closed
	s.RefreshCmd, s.RefreshEndCmd, s.RefreshLatency = refab, refabEnd, t.TRFC

	for _, c := range []int{rd, wr, rda, wra, macSbk, afSbk, wrbk, wrgb, wrmac, wrbias, rdmac, rdaf,
		mac4b, af4b, ewmul, ewadd, macab, afab, wraflut, copyBkgb, copyGbbk} {
		s.CommandMeta[c].AccessesData = true
	}
	s.CommandMeta[act2].OpensRow = true
	s.CommandMeta[act4bg].OpensRow = true
	s.CommandMeta[act16_2].OpensRow = true
	for _, c := range []int{pre, prea, pre4bg, rda, wra} {
		s.CommandMeta[c].ClosesRow = true
	}
	s.CommandMeta[refab].IsRefresh = true
	s.CommandMeta[refabEnd].IsRefresh = true

	bankScope := []int{act1, act2, pre, rd, wr, rda, wra, macSbk, afSbk, wrbk, wrgb, wrmac, wrbias, rdmac, rdaf, copyBkgb, copyGbbk}
	for _, c := range bankScope {
		s.ActionScope[c] = lpddr5LevelBank
	}
	bgScope := []int{act4bg, pre4bg, mac4b, af4b}
	for _, c := range bgScope {
		s.ActionScope[c] = lpddr5LevelBankGroup
	}
	rankScope := []int{prea, refab, refabEnd, act16_1, act16_2, macab, afab, ewmul, ewadd, wraflut}
	for _, c := range rankScope {
		s.ActionScope[c] = lpddr5LevelRank
	}

	for c := range s.AddressingLevel {
		s.AddressingLevel[c] = lpddr5LevelBank + 2
	}

	// --- Action wiring -------------------------------------------------
	s.Action[lpddr5LevelBank][act1] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		n.finalSyncedCycle = clk
		openRow(n, addr[lpddr5LevelBank+1], preOpened)
	}
	s.Action[lpddr5LevelBank][act2] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		openRow(n, addr[lpddr5LevelBank+1], opened)
		n.finalSyncedCycle = -1
		resync := clk + Clk(t.TRCD2)
		if resync > n.cmdReadyClk[rd] {
			n.cmdReadyClk[rd] = resync
		}
		if resync > n.cmdReadyClk[rda] {
			n.cmdReadyClk[rda] = resync
		}
		wrResync := resync + Clk(t.TCL-t.TCWL)
		if wrResync > n.cmdReadyClk[wr] {
			n.cmdReadyClk[wr] = wrResync
		}
		if wrResync > n.cmdReadyClk[wra] {
			n.cmdReadyClk[wra] = wrResync
		}
	}
	s.Action[lpddr5LevelBank][pre] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) { closeRow(n, closed) }
	s.Action[lpddr5LevelBank][rda] = s.Action[lpddr5LevelBank][pre]
	s.Action[lpddr5LevelBank][wra] = s.Action[lpddr5LevelBank][pre]
	s.Action[lpddr5LevelRank][prea] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		eachDescendantBank(n, func(b *Node) { closeRow(b, closed) })
	}
	s.Action[lpddr5LevelRank][refab] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		n.refreshBusyUntil = clk + Clk(t.TRFC)
		eachDescendantBank(n, func(b *Node) { b.state = refreshing })
	}
	s.Action[lpddr5LevelRank][refabEnd] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		n.refreshBusyUntil = 0
		eachDescendantBank(n, func(b *Node) { closeRow(b, closed) })
	}
	s.Action[lpddr5LevelBankGroup][act4bg] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		row := addr[lpddr5LevelBankGroup+2]
		for _, b := range n.children {
			openRow(b, row, opened)
		}
	}
	s.Action[lpddr5LevelBankGroup][pre4bg] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		for _, b := range n.children {
			closeRow(b, closed)
		}
	}
	s.Action[lpddr5LevelRank][act16_1] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		n.finalSyncedCycle = clk
		row := addr[lpddr5LevelRank+3]
		eachDescendantBank(n, func(b *Node) { openRow(b, row, preOpened) })
	}
	s.Action[lpddr5LevelRank][act16_2] = func(n *Node, cmd int, addr AddrHierarchy, clk Clk) {
		row := addr[lpddr5LevelRank+3]
		eachDescendantBank(n, func(b *Node) { openRow(b, row, opened) })
		n.finalSyncedCycle = -1
	}

	// --- Prerequisite wiring --------------------------------------------
	bankRowOpenPreq := preqBankRequireRowOpenTwoPhase(act1, act2, pre, preOpened, opened, refreshing)
	for _, c := range []int{rd, wr, rda, wra, macSbk, afSbk, wrbk, wrgb, wrmac, wrbias, rdmac, rdaf, copyBkgb, copyGbbk} {
		s.Preq[lpddr5LevelBank][c] = bankRowOpenPreq
	}
	bgAllOpenPreq := preqBankGroupRequireAllRowsOpen(act4bg, pre4bg, refreshing)
	for _, c := range []int{mac4b, af4b} {
		s.Preq[lpddr5LevelBankGroup][c] = bgAllOpenPreq
	}
	rankAllOpenPreq := preqAllBanksOpenScope(act16_1, act16_2, prea, preOpened, opened, refreshing)
	for _, c := range []int{macab, afab, ewmul, ewadd, wraflut} {
		s.Preq[lpddr5LevelRank][c] = rankAllOpenPreq
	}
	s.Preq[lpddr5LevelRank][refab] = preqAllBanksClosedScope(prea)

	// --- Row-hit / row-open queries --------------------------------------
	for _, c := range []int{rd, wr, rda, wra} {
		s.RowHit[lpddr5LevelBank][c] = bankRowHit
		s.RowOpen[lpddr5LevelBank][c] = bankRowOpen
	}

	// --- Command latencies -----------------------------------------------
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

	// --- Timing rules ------------------------------------------------------
	expandTiming(s, []TimingRuleDecl{
		{Level: lpddr5LevelBank, Preceding: []int{act1}, Following: []int{act2}, Latency: t.TRCD1},
		{Level: lpddr5LevelBank, Preceding: []int{act2}, Following: []int{pre}, Latency: t.TRAS},
		{Level: lpddr5LevelBank, Preceding: []int{pre}, Following: []int{act1}, Latency: t.TRP},
		{Level: lpddr5LevelBank, Preceding: []int{rda}, Following: []int{act1}, Latency: t.TRAS + t.TRP},
		{Level: lpddr5LevelBank, Preceding: []int{wra}, Following: []int{act1}, Latency: t.TRAS + t.TRP},
		{Level: lpddr5LevelBank, Preceding: []int{wr}, Following: []int{rd}, Latency: t.TCWL + t.TBL + t.TWTR},
		{Level: lpddr5LevelBank, Preceding: []int{rd}, Following: []int{wr}, Latency: t.TCL + t.TBL + t.TRTW},
		{Level: lpddr5LevelBankGroup, Preceding: []int{act1}, Following: []int{act1}, Latency: t.TRRD, Sibling: true},
		{Level: lpddr5LevelBank, Preceding: []int{act1}, Following: []int{act1}, Latency: t.TRRDL, Sibling: true},
		{Level: lpddr5LevelRank, Preceding: []int{act1}, Following: []int{act1}, Latency: t.TFAW, Window: 4},
		{Level: lpddr5LevelRank, Preceding: []int{refab}, Following: []int{act1, act2, pre, prea, rd, wr, rda, wra, act4bg, pre4bg, act16_1, act16_2, macSbk, afSbk, mac4b, af4b, macab, afab, ewmul, ewadd, wraflut}, Latency: t.TRFC},
	})

	return s
}
