package dram

// GetPreqCommand returns the command that must be issued next in order to
// eventually make cmd legal at the address addr — itself, if nothing
// stands in the way. Each level's resolver (if any) gets first say; a
// resolver returns -1 to mean "no opinion, defer to my children",
// anything else is taken as the answer and recursion stops immediately,
// matching the single C++ get_preq_command that the design notes ask to
// preserve, replacing its lambda table with a []PreqFunc.
func (n *Node) GetPreqCommand(cmd int, addr AddrHierarchy, clk Clk) int {
	s := n.spec
	if pf := s.Preq[n.level][cmd]; pf != nil {
		if r := pf(n, cmd, addr, clk); r >= 0 {
			return r
		}
	}

	if n.level == s.ActionScope[cmd] || len(n.children) == 0 {
		return cmd
	}
	if n.level < s.AddressingLevel[cmd] && n.level+1 < len(addr) && addr[n.level+1] >= 0 {
		child := n.Child(addr[n.level+1])
		if child == nil {
			return cmd
		}
		return child.GetPreqCommand(cmd, addr, clk)
	}
	for _, c := range n.children {
		if r := c.GetPreqCommand(cmd, addr, clk); r != cmd {
			return r
		}
	}
	return cmd
}

// onlyOpenRow returns the id of the single row open at bank-level node n.
// Both shipped presets never leave more than one row open per bank at a
// time (RequireRowOpen always precharges before a differing ACT), so the
// first map entry found is the answer.
func onlyOpenRow(n *Node) (int, bool) {
	for row := range n.rowState {
		return row, true
	}
	return 0, false
}

// --- Bank-level resolvers, grounded on original_source's Preq::Bank --------

// preqBankRequireRowOpen resolves the RD/WR family: activate a closed
// bank, precharge then reactivate a bank holding the wrong row, defer (row
// already correct), or defer to the timing engine while the bank refreshes.
func preqBankRequireRowOpen(actCmd, preCmd, refreshingState int) PreqFunc {
	return func(n *Node, cmd int, addr AddrHierarchy, clk Clk) int {
		if n.state == refreshingState {
			return cmd
		}
		targetRow := addr[n.level+1]
		if !isRowOpen(n) {
			return actCmd
		}
		if open, _ := onlyOpenRow(n); open != targetRow {
			return preCmd
		}
		return -1
	}
}

// preqBankRequireRowOpenTwoPhase is preqBankRequireRowOpen's LPDDR5
// analogue: activation is split into act1Cmd (PreOpened: intent recorded,
// row latched but not yet resynced) then act2Cmd (promotes the bank to
// Opened). It switches on the bank's actual state rather than inferring
// phase from row_state occupancy, since both ACT-1 and ACT-2 leave a row
// key present.
func preqBankRequireRowOpenTwoPhase(act1Cmd, act2Cmd, preCmd, preOpenedState, openedState, refreshingState int) PreqFunc {
	return func(n *Node, cmd int, addr AddrHierarchy, clk Clk) int {
		targetRow := addr[n.level+1]
		switch n.state {
		case refreshingState:
			return cmd
		case preOpenedState:
			if open, _ := onlyOpenRow(n); open != targetRow {
				return preCmd
			}
			return act2Cmd
		case openedState:
			if open, _ := onlyOpenRow(n); open != targetRow {
				return preCmd
			}
			return -1
		default:
			return act1Cmd
		}
	}
}

// --- Bankgroup-level resolvers, grounded on Preq::BankGroup ----------------

// preqBankGroupRequireAllRowsOpen resolves the precondition for 4-bank PIM
// commands (MAC4B_INTRA, AF4B_INTRA): every bank in the group must already
// have the target row open. A bank caught mid-refresh defers to the timing
// engine rather than being treated as a row-mismatch.
func preqBankGroupRequireAllRowsOpen(act4bgCmd, pre4bgCmd, refreshingState int) PreqFunc {
	return func(n *Node, cmd int, addr AddrHierarchy, clk Clk) int {
		targetRow := addr[n.level+2] // row is one level past bank
		allMatch, anyWrong, anyRefreshing := true, false, false
		for _, bank := range n.children {
			if bank.state == refreshingState {
				anyRefreshing = true
				continue
			}
			if !isRowOpen(bank) {
				allMatch = false
				continue
			}
			if open, _ := onlyOpenRow(bank); open != targetRow {
				allMatch = false
				anyWrong = true
			}
		}
		if anyRefreshing {
			return cmd
		}
		if allMatch {
			return -1
		}
		if anyWrong {
			return pre4bgCmd
		}
		return act4bgCmd
	}
}

// --- Rank/channel-level resolvers, grounded on Preq::Rank / Preq::Channel --

// preqAllBanksOpenScope resolves the precondition for all-bank PIM
// commands (MACAB, AFAB, ...): every bank under n (a rank, or a channel on
// a device with no rank level) must have the target row open, via the
// two-phase ACT16-1/ACT16-2 activation sequence. actPhase1/actPhase2 are
// the two phases' command indices; preAllCmd closes everything first when
// a wrong row is found open anywhere in scope. Each descendant bank's own
// state — not a rank-wide phase marker — decides which phase scope is in.
func preqAllBanksOpenScope(actPhase1, actPhase2, preAllCmd, preOpenedState, openedState, refreshingState int) PreqFunc {
	return func(n *Node, cmd int, addr AddrHierarchy, clk Clk) int {
		targetRow := addr[len(addr)-2] // row is always second-to-last addressed level
		allOpened, allPreOpened, anyWrong, anyRefreshing := true, true, false, false
		eachDescendantBank(n, func(bank *Node) {
			switch bank.state {
			case refreshingState:
				anyRefreshing = true
			case openedState:
				allPreOpened = false
				if open, _ := onlyOpenRow(bank); open != targetRow {
					anyWrong = true
				}
			case preOpenedState:
				allOpened = false
				if open, _ := onlyOpenRow(bank); open != targetRow {
					anyWrong = true
				}
			default:
				allOpened, allPreOpened = false, false
			}
		})
		if anyRefreshing {
			return cmd
		}
		if anyWrong {
			return preAllCmd
		}
		if allOpened {
			return -1
		}
		if allPreOpened {
			return actPhase2
		}
		return actPhase1
	}
}

// preqAllBanksOpenScopeSinglePhase is preqAllBanksOpenScope's single-phase
// analogue, for device models with no rank level (GDDR6): activation of
// every bank in scope happens as one ACT16, with no phase-1/phase-2 split.
func preqAllBanksOpenScopeSinglePhase(actCmd, preAllCmd, openedState, refreshingState int) PreqFunc {
	return func(n *Node, cmd int, addr AddrHierarchy, clk Clk) int {
		targetRow := addr[len(addr)-2]
		allOpen, anyWrong, anyRefreshing := true, false, false
		eachDescendantBank(n, func(bank *Node) {
			switch bank.state {
			case refreshingState:
				anyRefreshing = true
			case openedState:
				if open, _ := onlyOpenRow(bank); open != targetRow {
					anyWrong = true
				}
			default:
				allOpen = false
			}
		})
		if anyRefreshing {
			return cmd
		}
		if anyWrong {
			return preAllCmd
		}
		if allOpen {
			return -1
		}
		return actCmd
	}
}

// preqAllBanksClosedScope resolves the precondition for REFab: every bank
// under n must be precharged before a refresh of its scope can issue.
func preqAllBanksClosedScope(preAllCmd int) PreqFunc {
	return func(n *Node, cmd int, addr AddrHierarchy, clk Clk) int {
		closed := true
		eachDescendantBank(n, func(bank *Node) {
			if isRowOpen(bank) {
				closed = false
			}
		})
		if closed {
			return -1
		}
		return preAllCmd
	}
}
