// Package request defines the simulator's unit of work — a Request — and
// the PIM command fanout table used to expand a single PIM submission
// into the sequence of DRAM commands it actually issues.
package request

import "github.com/comsys-lab/PIM-NDP-Sim/internal/dram"

// Type is a request's kind, independent of the DRAM command(s) it will
// eventually expand to.
type Type int

const (
	TypeRead Type = iota
	TypeWrite
	TypePIMBank    // single-bank PIM op (MAC_SBK, AF_SBK, COPY_BKGB, COPY_GBBK)
	TypePIMNoBank  // every other PIM op: 4-bank, all-bank and no-bank (MAC4B_INTRA, AF4B_INTRA, EWMUL, EWADD, MACAB, AFAB, WRAFLUT, WRBK, WRGB, WRMAC, WRBIAS, RDMAC, RDAF)
)

func (t Type) String() string {
	switch t {
	case TypeRead:
		return "read"
	case TypeWrite:
		return "write"
	case TypePIMBank:
		return "pim_bank"
	case TypePIMNoBank:
		return "pim_no_bank"
	default:
		return "unknown"
	}
}

// Request is one entry in a controller buffer: an address plus the
// command it will eventually resolve to issuing, a Type used for buffer
// routing, and a Callback fired exactly once when the request departs.
type Request struct {
	Seq      int64 // monotonic enqueue sequence, assigned by the controller; stable across buffer compaction
	Type     Type
	Command  int
	Addr     dram.AddrHierarchy
	ArriveAt dram.Clk
	DepartAt dram.Clk // set once served; zero until then

	// Callback fires exactly once, when the request departs — i.e. when
	// its data (for reads) or acknowledgment (for writes/PIM ops) is
	// ready, matching the "fires once" contract the frontend wrapper
	// relies on for completion notification.
	Callback func(Request)
}

// PIMFanout maps a PIM request's logical operation name to the DRAM
// command(s) it is issued as. Every entry holds exactly one command, and
// frontend.SubmitPIM issues only the first element of the slice.
var PIMFanout = map[string][]string{
	"mac_sbk":      {"MAC_SBK"},
	"af_sbk":       {"AF_SBK"},
	"copy_bkgb":    {"COPY_BKGB"},
	"copy_gbbk":    {"COPY_GBBK"},
	"mac4b_intra":  {"MAC4B_INTRA"},
	"af4b_intra":   {"AF4B_INTRA"},
	"ewmul":        {"EWMUL"},
	"ewadd":        {"EWADD"},
	"macab":        {"MACAB"},
	"afab":         {"AFAB"},
	"wraflut":      {"WRAFLUT"},
	"wrbk":         {"WRBK"},
	"wrgb":         {"WRGB"},
	"wrmac":        {"WRMAC"},
	"wrbias":       {"WRBIAS"},
	"rdmac":        {"RDMAC"},
	"rdaf":         {"RDAF"},
}
