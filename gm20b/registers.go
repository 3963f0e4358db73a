package gm20b

// Number of 32 bit method registers in the engine method space
const ENGINE_METHOD_COUNT = 0xe00

// Method numbers of the MAXWELL_DMA_COPY_A (B0B5) class. A method
// number is the word offset of the register inside the method space
const (
	METHOD_SET_SEMAPHORE_A       = 0x90 // Semaphore address, upper 32 bits
	METHOD_SET_SEMAPHORE_B       = 0x91 // Semaphore address, lower 32 bits
	METHOD_SET_SEMAPHORE_PAYLOAD = 0x92
	METHOD_LAUNCH_DMA            = 0xc0
	METHOD_OFFSET_IN_UPPER       = 0x100
	METHOD_OFFSET_IN_LOWER       = 0x101
	METHOD_OFFSET_OUT_UPPER      = 0x102
	METHOD_OFFSET_OUT_LOWER      = 0x103
	METHOD_PITCH_IN              = 0x104
	METHOD_PITCH_OUT             = 0x105
	METHOD_LINE_LENGTH_IN        = 0x106
	METHOD_LINE_COUNT            = 0x107
	METHOD_SET_DST_BLOCK_SIZE    = 0x1c3
	METHOD_SET_DST_WIDTH         = 0x1c4
	METHOD_SET_DST_HEIGHT        = 0x1c5
	METHOD_SET_DST_DEPTH         = 0x1c6
	METHOD_SET_DST_LAYER         = 0x1c7
	METHOD_SET_DST_ORIGIN        = 0x1c8
	METHOD_SET_SRC_BLOCK_SIZE    = 0x1c9
	METHOD_SET_SRC_WIDTH         = 0x1ca
	METHOD_SET_SRC_HEIGHT        = 0x1cb
	METHOD_SET_SRC_DEPTH         = 0x1cc
	METHOD_SET_SRC_LAYER         = 0x1cd
	METHOD_SET_SRC_ORIGIN        = 0x1ce
)

// GPU virtual addresses are 48 bits wide
const GPU_VA_MASK = (1 << 48) - 1

// DMA data transfer type
type DataTransferType uint8

const (
	DATA_TRANSFER_NONE          DataTransferType = 0
	DATA_TRANSFER_PIPELINED     DataTransferType = 1
	DATA_TRANSFER_NON_PIPELINED DataTransferType = 2
)

// Semaphore release mode executed after a DMA launch
type SemaphoreType uint8

const (
	SEMAPHORE_TYPE_NONE         SemaphoreType = 0
	SEMAPHORE_RELEASE_ONE_WORD  SemaphoreType = 1
	SEMAPHORE_RELEASE_FOUR_WORD SemaphoreType = 2
)

// Memory layout of a DMA copy operand
type MemoryLayout uint8

const (
	MEMORY_LAYOUT_BLOCK_LINEAR MemoryLayout = 0
	MEMORY_LAYOUT_PITCH        MemoryLayout = 1
)

// Decoded value of the launchDma trigger register
type LaunchDma struct {
	DataTransferType       DataTransferType
	FlushEnable            bool
	SemaphoreType          SemaphoreType
	InterruptType          uint8
	SrcMemoryLayout        MemoryLayout
	DstMemoryLayout        MemoryLayout
	MultiLineEnable        bool
	RemapEnable            bool
	ForceRmwDisable        bool
	SrcType                bool // false = virtual, true = physical
	DstType                bool
	SemaphoreReduction     uint8
	SemaphoreReductionSign bool
	ReductionEnable        bool
	BypassL2               bool
}

// Decodes a launchDma register value
func LaunchDmaFromWord(val uint32) LaunchDma {
	return LaunchDma{
		DataTransferType:       DataTransferType(val & 3),
		FlushEnable:            (val>>2)&1 != 0,
		SemaphoreType:          SemaphoreType((val >> 3) & 3),
		InterruptType:          uint8((val >> 5) & 3),
		SrcMemoryLayout:        MemoryLayout((val >> 7) & 1),
		DstMemoryLayout:        MemoryLayout((val >> 8) & 1),
		MultiLineEnable:        (val>>9)&1 != 0,
		RemapEnable:            (val>>10)&1 != 0,
		ForceRmwDisable:        (val>>11)&1 != 0,
		SrcType:                (val>>12)&1 != 0,
		DstType:                (val>>13)&1 != 0,
		SemaphoreReduction:     uint8((val >> 14) & 0xf),
		SemaphoreReductionSign: (val>>18)&1 != 0,
		ReductionEnable:        (val>>19)&1 != 0,
		BypassL2:               (val>>20)&1 != 0,
	}
}

// Encodes the launch configuration back into a register word
func (launch *LaunchDma) Word() uint32 {
	var r uint32 = 0
	r |= uint32(launch.DataTransferType) << 0
	r |= oneIfTrue(launch.FlushEnable) << 2
	r |= uint32(launch.SemaphoreType) << 3
	r |= uint32(launch.InterruptType) << 5
	r |= uint32(launch.SrcMemoryLayout) << 7
	r |= uint32(launch.DstMemoryLayout) << 8
	r |= oneIfTrue(launch.MultiLineEnable) << 9
	r |= oneIfTrue(launch.RemapEnable) << 10
	r |= oneIfTrue(launch.ForceRmwDisable) << 11
	r |= oneIfTrue(launch.SrcType) << 12
	r |= oneIfTrue(launch.DstType) << 13
	r |= uint32(launch.SemaphoreReduction) << 14
	r |= oneIfTrue(launch.SemaphoreReductionSign) << 18
	r |= oneIfTrue(launch.ReductionEnable) << 19
	r |= oneIfTrue(launch.BypassL2) << 20
	return r
}

// GOB block configuration of a block-linear surface operand. The raw
// fields hold log2 GOB counts
type BlockSize struct {
	Raw uint32
}

// Block width in GOBs. Always 1 on the Tegra X1, anything else is
// rejected by the copy paths
func (bs BlockSize) Width() int {
	return 1 << (bs.Raw & 0xf)
}

// Block height in GOBs
func (bs BlockSize) Height() int {
	return 1 << ((bs.Raw >> 4) & 0xf)
}

// Block depth in GOBs
func (bs BlockSize) Depth() int {
	return 1 << ((bs.Raw >> 8) & 0xf)
}

// Height of a GOB in lines. 0 encodes the Tegra native 8 line GOB
func (bs BlockSize) GobHeight() int {
	return int((bs.Raw >> 12) & 0xf)
}

// Decoded block-linear surface operand of a DMA copy
type Surface struct {
	BlockSize BlockSize
	Width     uint32
	Height    uint32
	Depth     uint32
	Layer     uint32
	OriginX   uint32
	OriginY   uint32
}

// The register file of the DMA engine: a flat array of 32 bit words
// indexed by method number, with typed accessors decoding the ranges
// that matter
type Registers struct {
	Raw [ENGINE_METHOD_COUNT]uint32
}

// Decodes the launchDma register
func (regs *Registers) LaunchDma() LaunchDma {
	return LaunchDmaFromWord(regs.Raw[METHOD_LAUNCH_DMA])
}

// Assembles a 48 bit GPU virtual address from an upper/lower register
// pair starting at `method`
func (regs *Registers) gpuVa(method int) uint64 {
	return (uint64(regs.Raw[method])<<32 | uint64(regs.Raw[method+1])) & GPU_VA_MASK
}

// Source GPU virtual address of the copy
func (regs *Registers) OffsetIn() uint64 {
	return regs.gpuVa(METHOD_OFFSET_IN_UPPER)
}

// Destination GPU virtual address of the copy
func (regs *Registers) OffsetOut() uint64 {
	return regs.gpuVa(METHOD_OFFSET_OUT_UPPER)
}

// Source row stride in bytes
func (regs *Registers) PitchIn() uint32 {
	return regs.Raw[METHOD_PITCH_IN]
}

// Destination row stride in bytes
func (regs *Registers) PitchOut() uint32 {
	return regs.Raw[METHOD_PITCH_OUT]
}

// Length of a copied row in bytes
func (regs *Registers) LineLengthIn() uint32 {
	return regs.Raw[METHOD_LINE_LENGTH_IN]
}

// Number of rows to copy
func (regs *Registers) LineCount() uint32 {
	return regs.Raw[METHOD_LINE_COUNT]
}

// Semaphore address programmed through SET_SEMAPHORE_A/B
func (regs *Registers) SemaphoreAddress() uint64 {
	return regs.gpuVa(METHOD_SET_SEMAPHORE_A)
}

// Semaphore payload word
func (regs *Registers) SemaphorePayload() uint32 {
	return regs.Raw[METHOD_SET_SEMAPHORE_PAYLOAD]
}

// Decodes a surface operand starting at the block size register
// `method`
func (regs *Registers) surface(method int) Surface {
	origin := regs.Raw[method+5]
	return Surface{
		BlockSize: BlockSize{Raw: regs.Raw[method]},
		Width:     regs.Raw[method+1],
		Height:    regs.Raw[method+2],
		Depth:     regs.Raw[method+3],
		Layer:     regs.Raw[method+4],
		OriginX:   origin & 0xffff,
		OriginY:   origin >> 16,
	}
}

// Decodes the destination surface operand
func (regs *Registers) DstSurface() Surface {
	return regs.surface(METHOD_SET_DST_BLOCK_SIZE)
}

// Decodes the source surface operand
func (regs *Registers) SrcSurface() Surface {
	return regs.surface(METHOD_SET_SRC_BLOCK_SIZE)
}
