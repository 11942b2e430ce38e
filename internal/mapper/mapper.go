// Package mapper implements the address mapper collaborator interface:
// turning a flat physical address into a dram.AddrHierarchy (and back),
// per a fixed bit-field layout.
package mapper

import (
	"math/bits"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/simerrors"
)

// Mapper converts between a flat physical address and a device's
// AddrHierarchy. Apply produces one physical address per (request,
// channel) pair — batching calls that share a non-channel address is a
// frontend concern, not a mapper one.
type Mapper interface {
	Apply(flatAddr uint64) (dram.AddrHierarchy, error)
	ConvertPacket(addr dram.AddrHierarchy) uint64
	Name() string
}

// Field names one address component (a tree level, or the virtual
// "row"/"column" components) and how many bits of the flat address it
// consumes.
type Field struct {
	Name string
	Bits int
}

// widthFor returns the number of bits needed to address count distinct
// values.
func widthFor(count int) int {
	if count <= 1 {
		return 0
	}
	return bits.Len(uint(count - 1))
}

// linear is the shared implementation behind both fully-specified Linear*
// variants: a fixed, non-overlapping sequence of bit fields, MSB-first in
// Fields order, each decoded by an ordinary shift-and-mask.
type linear struct {
	name   string
	fields []Field // order matches the AddrHierarchy index order (channel, [rank], bankgroup, bank, row, column)
}

func newLinear(name string, fields []Field) *linear {
	return &linear{name: name, fields: fields}
}

func (l *linear) Name() string { return l.name }

func (l *linear) Apply(flatAddr uint64) (dram.AddrHierarchy, error) {
	total := 0
	for _, f := range l.fields {
		total += f.Bits
	}
	if total > 64 {
		return nil, simerrors.Newf("Mapper.Apply", simerrors.ConfigurationError, "%s: field widths sum to %d bits, exceeds 64", l.name, total)
	}

	addr := make(dram.AddrHierarchy, len(l.fields))
	shift := total
	for i, f := range l.fields {
		shift -= f.Bits
		mask := uint64(1)<<f.Bits - 1
		addr[i] = int((flatAddr >> shift) & mask)
	}
	return addr, nil
}

func (l *linear) ConvertPacket(addr dram.AddrHierarchy) uint64 {
	var flat uint64
	for i, f := range l.fields {
		flat <<= f.Bits
		if i < len(addr) {
			flat |= uint64(addr[i]) & (uint64(1)<<f.Bits - 1)
		}
	}
	return flat
}

// NewLinearChannelRankBankRowColumn builds the "CRBRC" variant: channel in
// the highest bits, then (on devices with a rank level) rank, bankgroup,
// bank, row, column in the lowest bits — the layout that maximizes
// row-buffer locality for sequential access patterns.
func NewLinearChannelRankBankRowColumn(levels []string, org dram.Organization) Mapper {
	fields := make([]Field, 0, len(levels)+2)
	for i, name := range levels {
		fields = append(fields, Field{Name: name, Bits: widthFor(org.Count[i])})
	}
	fields = append(fields, Field{Name: "row", Bits: widthFor(org.RowsPerBank)})
	fields = append(fields, Field{Name: "column", Bits: widthFor(org.ColumnsPerRow)})
	return newLinear("CRBRC", fields)
}

// NewLinearRowBankRankColumnChannel builds the "RBRCCh" variant: row and
// bank-ish fields occupy the high bits and channel the low bits, spreading
// sequential addresses across channels for maximum channel-level
// parallelism instead of row-buffer locality.
func NewLinearRowBankRankColumnChannel(levels []string, org dram.Organization) Mapper {
	fields := []Field{{Name: "row", Bits: widthFor(org.RowsPerBank)}}
	// bank-ish fields in reverse level order (deepest first), excluding channel
	for i := len(levels) - 1; i > 0; i-- {
		fields = append(fields, Field{Name: levels[i], Bits: widthFor(org.Count[i])})
	}
	fields = append(fields, Field{Name: "column", Bits: widthFor(org.ColumnsPerRow)})
	fields = append(fields, Field{Name: levels[0], Bits: widthFor(org.Count[0])})
	return newLinear("RBRCCh", fields)
}

// unimplemented is the Mapper stub both MOP4CLXOR and RoBaRaCoCh resolve
// to. Their bit layout is unresolved upstream (SPEC_FULL.md §9, Open
// Questions 2) — guessing one would silently corrupt every address they
// ever touched, so both are registered and immediately fail instead.
type unimplemented struct{ name string }

func (u unimplemented) Name() string { return u.name }

func (u unimplemented) Apply(flatAddr uint64) (dram.AddrHierarchy, error) {
	return nil, simerrors.New("Mapper.Apply", simerrors.ConfigurationError, u.name+": bit layout not specified upstream, not implemented")
}

func (u unimplemented) ConvertPacket(addr dram.AddrHierarchy) uint64 { return 0 }

// NewMOP4CLXOR and NewRoBaRaCoCh are registered mapper variants named in
// the original tool's configuration surface; see the unimplemented type's
// doc comment.
func NewMOP4CLXOR() Mapper  { return unimplemented{name: "MOP4CLXOR"} }
func NewRoBaRaCoCh() Mapper { return unimplemented{name: "RoBaRaCoCh"} }
