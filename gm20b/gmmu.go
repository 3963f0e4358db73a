package gm20b

import (
	"fmt"
	"sort"
)

// A range of GPU virtual address space
type Range struct {
	Start  uint64 // Start address
	Length uint64 // Length of the mapping
}

func NewRange(start, length uint64) Range {
	return Range{Start: start, Length: length}
}

// Returns whether `addr` is located inside this range
func (r *Range) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.Start+r.Length
}

// Returns the offset between `addr` and the `Start` of the range.
// Does not check if the range contains the address, so if `addr`
// is smaller than `Start`, there will be an overflow
func (r *Range) Offset(addr uint64) uint64 {
	return addr - r.Start
}

// A contiguous host buffer mapped into the GPU address space
type Mapping struct {
	Range Range
	Data  []byte // Host backing, len(Data) == Range.Length
}

// The GPU memory management unit of one address space. Translates GPU
// virtual address ranges into host byte spans. Channels sharing an
// address space share one GMMU instance; accesses through it are
// serialized by the command processor
type GMMU struct {
	Mappings []*Mapping // Sorted by start address
}

// Returns a new GMMU with no mappings
func NewGMMU() *GMMU {
	return &GMMU{}
}

// Maps `data` at the GPU virtual address `va`. The mapping must not
// overlap an existing one
func (mmu *GMMU) Map(va uint64, data []byte) {
	mapping := &Mapping{
		Range: NewRange(va, uint64(len(data))),
		Data:  data,
	}
	idx := sort.Search(len(mmu.Mappings), func(i int) bool {
		return mmu.Mappings[i].Range.Start >= va
	})
	mmu.Mappings = append(mmu.Mappings, nil)
	copy(mmu.Mappings[idx+1:], mmu.Mappings[idx:])
	mmu.Mappings[idx] = mapping
}

// Translates the GPU virtual address range `[va, va+size)` into zero
// or more contiguous host spans. More than one span means the range is
// split across host allocations. Unmapped holes end the translation
func (mmu *GMMU) TranslateRange(va, size uint64) [][]byte {
	var spans [][]byte
	for size > 0 {
		mapping := mmu.findMapping(va)
		if mapping == nil {
			break
		}
		offset := mapping.Range.Offset(va)
		chunk := mapping.Range.Length - offset
		if chunk > size {
			chunk = size
		}
		spans = append(spans, mapping.Data[offset:offset+chunk])
		va += chunk
		size -= chunk
	}
	return spans
}

// Writes a little endian 64 bit word through the address space. A
// write to an unmapped address is logged and dropped
func (mmu *GMMU) Write64(va uint64, val uint64) {
	mapping := mmu.findMapping(va)
	if mapping == nil {
		fmt.Printf("gmmu: write64 to unmapped address 0x%x dropped\n", va)
		return
	}
	offset := mapping.Range.Offset(va)
	for i := uint64(0); i < 8; i++ {
		mapping.Data[offset+i] = byte(val >> (i * 8))
	}
}

// Reads a little endian 64 bit word through the address space
func (mmu *GMMU) Read64(va uint64) uint64 {
	mapping := mmu.findMapping(va)
	if mapping == nil {
		panicFmt("gmmu: read64 from unmapped address 0x%x", va)
	}
	offset := mapping.Range.Offset(va)
	var val uint64
	for i := uint64(0); i < 8; i++ {
		val |= uint64(mapping.Data[offset+i]) << (i * 8)
	}
	return val
}

func (mmu *GMMU) findMapping(va uint64) *Mapping {
	idx := sort.Search(len(mmu.Mappings), func(i int) bool {
		return mmu.Mappings[i].Range.Start+mmu.Mappings[i].Range.Length > va
	})
	if idx < len(mmu.Mappings) && mmu.Mappings[idx].Range.Contains(va) {
		return mmu.Mappings[idx]
	}
	return nil
}
