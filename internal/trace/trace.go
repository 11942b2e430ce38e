// Package trace parses the simulator's trace file format: one request per
// line, whitespace-separated fields, blank lines and lines starting with
// '#' ignored. The first token is a mnemonic (R, W, or a PIM command name);
// the remaining fields depend on the mnemonic's bank fanout:
//
//	R   <addr>
//	W   <addr>
//	MAC_SBK          <ch_mask> <rank> <pch> <bank> <row> <col> <addr>
//	MAC_4BK_INTRA_BG <ch_mask> <rank> <pch> <bank_or_mask> <row> <col>
//	MAC_ABK          <ch_mask> <rank> <pch> <bank_or_mask> <row> <col>
//	WR_GB            <ch_mask>
package trace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"
)

// Fanout classifies a PIM mnemonic by how many banks it touches, which in
// turn decides the trace line's field layout.
type Fanout int

const (
	FanoutNone   Fanout = 0  // WR_GB, WR_MAC, WR_BIAS, RD_MAC, RD_AF
	FanoutSingle Fanout = 1  // MAC_SBK, AF_SBK, COPY_BKGB, COPY_GBBK
	FanoutGroup  Fanout = 4  // MAC_4BK_INTRA_BG, AF_4BK_INTRA_BG, EWMUL, EWADD
	FanoutAll    Fanout = 16 // MAC_ABK, AF_ABK, WR_AFLUT, WR_BK
)

// pimMnemonic describes one trace-file PIM token: the request.PIMFanout
// key it expands to, and the bank fanout that decides its field layout.
type pimMnemonic struct {
	op     string
	fanout Fanout
}

// pimMnemonics is the trace file's command vocabulary, grounded on the
// original trace loader's token table (init_trace's if/else ladder).
var pimMnemonics = map[string]pimMnemonic{
	"MAC_SBK":          {"mac_sbk", FanoutSingle},
	"AF_SBK":           {"af_sbk", FanoutSingle},
	"COPY_BKGB":        {"copy_bkgb", FanoutSingle},
	"COPY_GBBK":        {"copy_gbbk", FanoutSingle},
	"MAC_4BK_INTRA_BG": {"mac4b_intra", FanoutGroup},
	"AF_4BK_INTRA_BG":  {"af4b_intra", FanoutGroup},
	"EWMUL":            {"ewmul", FanoutGroup},
	"EWADD":            {"ewadd", FanoutGroup},
	"MAC_ABK":          {"macab", FanoutAll},
	"AF_ABK":           {"afab", FanoutAll},
	"WR_AFLUT":         {"wraflut", FanoutAll},
	"WR_BK":            {"wrbk", FanoutAll},
	"WR_GB":            {"wrgb", FanoutNone},
	"WR_MAC":           {"wrmac", FanoutNone},
	"WR_BIAS":          {"wrbias", FanoutNone},
	"RD_MAC":           {"rdmac", FanoutNone},
	"RD_AF":            {"rdaf", FanoutNone},
}

// Entry is one parsed trace line. Which fields are meaningful depends on
// Type and, for PIM entries, Fanout: a no-bank entry carries only
// ChannelMask; a single-bank entry additionally carries FlatAddr; a
// group/all-bank entry carries Rank/Pch/BankAddrOrMask/Row/Col instead.
type Entry struct {
	Type           request.Type
	Op             string // PIMFanout key; empty for read/write
	Fanout         Fanout
	ChannelMask    uint64
	Rank           int
	Pch            int
	BankAddrOrMask int
	Row            int
	Col            int
	FlatAddr       uint64
	Line           int
}

// Parse reads every entry from r, in file order.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		entry, err := parseLine(fields, lineNo)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, simerrors.Wrap("trace.Parse", simerrors.TraceFormatError, err)
	}
	return entries, nil
}

func parseLine(fields []string, lineNo int) (Entry, error) {
	if len(fields) < 2 {
		return Entry{}, malformed(lineNo, strings.Join(fields, " "), "expected at least <mnemonic> <field>")
	}
	mnemonic := fields[0]

	switch mnemonic {
	case "R", "W":
		addr, err := parseDecimal(fields[1], lineNo)
		if err != nil {
			return Entry{}, err
		}
		t := request.TypeRead
		if mnemonic == "W" {
			t = request.TypeWrite
		}
		return Entry{Type: t, FlatAddr: addr, Line: lineNo}, nil
	default:
		pm, ok := pimMnemonics[mnemonic]
		if !ok {
			return Entry{}, malformed(lineNo, mnemonic, "unknown request mnemonic")
		}
		return parsePIMLine(pm, fields, lineNo)
	}
}

func parsePIMLine(pm pimMnemonic, fields []string, lineNo int) (Entry, error) {
	t := request.TypePIMBank
	if pm.fanout != FanoutSingle {
		t = request.TypePIMNoBank
	}
	e := Entry{Type: t, Op: pm.op, Fanout: pm.fanout, Line: lineNo}

	switch pm.fanout {
	case FanoutNone:
		if len(fields) < 2 {
			return Entry{}, malformed(lineNo, pm.op, "expected <ch_mask>")
		}
		mask, err := parseUint(fields[1], lineNo)
		if err != nil {
			return Entry{}, err
		}
		e.ChannelMask = mask
		return e, nil

	case FanoutSingle:
		if len(fields) < 8 {
			return Entry{}, malformed(lineNo, pm.op, "expected <ch_mask> <rank> <pch> <bank> <row> <col> <addr>")
		}
		mask, err := parseUint(fields[1], lineNo)
		if err != nil {
			return Entry{}, err
		}
		addr, err := parseDecimal(fields[7], lineNo)
		if err != nil {
			return Entry{}, err
		}
		e.ChannelMask = mask
		e.FlatAddr = addr
		return e, nil

	case FanoutGroup, FanoutAll:
		if len(fields) < 7 {
			return Entry{}, malformed(lineNo, pm.op, "expected <ch_mask> <rank> <pch> <bank_or_mask> <row> <col>")
		}
		mask, err := parseUint(fields[1], lineNo)
		if err != nil {
			return Entry{}, err
		}
		rank, err := parseInt(fields[2], lineNo)
		if err != nil {
			return Entry{}, err
		}
		pch, err := parseInt(fields[3], lineNo)
		if err != nil {
			return Entry{}, err
		}
		bankOrMask, err := parseInt(fields[4], lineNo)
		if err != nil {
			return Entry{}, err
		}
		row, err := parseInt(fields[5], lineNo)
		if err != nil {
			return Entry{}, err
		}
		col, err := parseInt(fields[6], lineNo)
		if err != nil {
			return Entry{}, err
		}
		e.ChannelMask = mask
		e.Rank = rank
		e.Pch = pch
		e.BankAddrOrMask = bankOrMask
		e.Row = row
		e.Col = col
		return e, nil
	}
	return Entry{}, malformed(lineNo, pm.op, "unhandled fanout class")
}

func parseDecimal(tok string, lineNo int) (uint64, error) {
	addr, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, malformed(lineNo, tok, "expected a decimal address")
	}
	return addr, nil
}

func parseUint(tok string, lineNo int) (uint64, error) {
	v, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, malformed(lineNo, tok, "expected a decimal field")
	}
	return v, nil
}

func parseInt(tok string, lineNo int) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, malformed(lineNo, tok, "expected a decimal field")
	}
	return v, nil
}

func malformed(lineNo int, token, reason string) error {
	return simerrors.Newf("trace.Parse", simerrors.TraceFormatError, "line %d: %s: %q", lineNo, reason, token)
}
