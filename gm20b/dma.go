package gm20b

import "fmt"

// Translates GPU virtual address ranges into host spans and performs
// guest-visible word writes. Implemented by GMMU
type AddressSpace interface {
	TranslateRange(va, size uint64) [][]byte
	Write64(va, val uint64)
}

// Flushes pending host GPU work. Submit is a full barrier: all prior
// GPU work observable to the channel completes before it returns
type Submitter interface {
	Submit()
}

// Performs linear guest-to-guest byte copies. Implemented by
// Interconnect
type Copier interface {
	Copy(dstVa, srcVa, size uint64)
}

// Provides the GPU timestamp sampled by four-word semaphore releases.
// Implemented by TimeHandler
type Clock interface {
	GpuTimeTicks() uint64
}

// The Maxwell DMA copy engine (MAXWELL_DMA_COPY_A) of one channel. The
// command processor drives it through method writes; writing the
// launchDma register triggers the programmed copy. All calls are
// serialized per channel, engines of different channels share no
// mutable state
type MaxwellDma struct {
	Registers    Registers
	Gmmu         AddressSpace
	Executor     Submitter
	Interconnect Copier
	Clock        Clock
	Syncpoints   *Syncpoints // Reserved for future use by the copy path
}

// Returns a new DMA engine for one channel
func NewMaxwellDma(mmu AddressSpace, exec Submitter, inter Copier, clock Clock, syncpoints *Syncpoints) *MaxwellDma {
	return &MaxwellDma{
		Gmmu:         mmu,
		Executor:     exec,
		Interconnect: inter,
		Clock:        clock,
		Syncpoints:   syncpoints,
	}
}

// Stores `argument` into the method register `method`. Writing
// METHOD_LAUNCH_DMA triggers the programmed copy
func (dma *MaxwellDma) CallMethod(method uint32, argument uint32) {
	dma.handleMethod(method, argument)
}

// Applies each argument to the same non-incrementing method register
// in order. Every write may trigger a launch
func (dma *MaxwellDma) CallMethodBatchNonInc(method uint32, arguments []uint32) {
	for _, argument := range arguments {
		dma.handleMethod(method, argument)
	}
}

func (dma *MaxwellDma) handleMethod(method uint32, argument uint32) {
	if method >= ENGINE_METHOD_COUNT {
		panicFmt("dma: method 0x%x out of range", method)
	}
	dma.Registers.Raw[method] = argument

	if method == METHOD_LAUNCH_DMA {
		dma.launchDma()
	}
}

func (dma *MaxwellDma) launchDma() {
	if dma.Registers.LaunchDma().RemapEnable {
		fmt.Printf("dma: remapped DMA copies are unimplemented\n")
	} else {
		dma.dmaCopy()
	}

	dma.releaseSemaphore()
}

func (dma *MaxwellDma) dmaCopy() {
	launch := dma.Registers.LaunchDma()

	if launch.MultiLineEnable {
		// the copy reads guest memory directly, prior GPU work has to
		// land first
		dma.Executor.Submit()

		if launch.SrcMemoryLayout == launch.DstMemoryLayout {
			if launch.SrcMemoryLayout == MEMORY_LAYOUT_PITCH {
				dma.copyPitchToPitch()
			} else {
				fmt.Printf("dma: blocklinear to blocklinear DMA copies are unimplemented\n")
			}
		} else if launch.SrcMemoryLayout == MEMORY_LAYOUT_BLOCK_LINEAR {
			dma.copyBlockLinearToPitch()
		} else {
			dma.copyPitchToBlockLinear()
		}
	} else {
		// 1D copy
		dma.Interconnect.Copy(dma.Registers.OffsetOut(), dma.Registers.OffsetIn(), uint64(dma.Registers.LineLengthIn()))
	}
}

func (dma *MaxwellDma) copyPitchToPitch() {
	pitchIn := dma.Registers.PitchIn()
	pitchOut := dma.Registers.PitchOut()
	lineLength := dma.Registers.LineLengthIn()
	lineCount := dma.Registers.LineCount()

	if pitchIn == pitchOut && pitchIn == lineLength {
		// rows are back to back on both sides, copy as is
		dma.Interconnect.Copy(dma.Registers.OffsetOut(), dma.Registers.OffsetIn(), uint64(lineLength)*uint64(lineCount))
		return
	}

	srcOffset := uint64(0)
	dstOffset := uint64(0)
	for line := uint32(0); line < lineCount; line++ {
		dma.Interconnect.Copy(dma.Registers.OffsetOut()+dstOffset, dma.Registers.OffsetIn()+srcOffset, uint64(lineLength))
		srcOffset += uint64(pitchIn)
		dstOffset += uint64(pitchOut)
	}
}

func (dma *MaxwellDma) copyBlockLinearToPitch() {
	srcSurface := dma.Registers.SrcSurface()
	if srcSurface.BlockSize.Width() != 1 {
		fmt.Printf("dma: blocklinear surfaces with a block width of %d GOBs are unsupported on the Tegra X1\n", srcSurface.BlockSize.Width())
		return
	}

	srcDim := Dimensions{Width: int(srcSurface.Width), Height: int(srcSurface.Height), Depth: int(srcSurface.Depth)}
	srcLayerStride := GetBlockLinearLayerSize(srcDim, 1, 1, 1, srcSurface.BlockSize.Height(), srcSurface.BlockSize.Depth())
	srcMappings := dma.Gmmu.TranslateRange(dma.Registers.OffsetIn(), uint64(srcLayerStride))

	dstDim := Dimensions{Width: int(dma.Registers.LineLengthIn()), Height: int(dma.Registers.LineCount()), Depth: int(srcSurface.Depth)}
	// without remapping there is a single byte per pixel
	dstSize := uint64(dma.Registers.PitchOut()) * uint64(dstDim.Height) * uint64(dstDim.Depth)
	dstMappings := dma.Gmmu.TranslateRange(dma.Registers.OffsetOut(), dstSize)

	if len(srcMappings) != 1 || len(dstMappings) != 1 {
		fmt.Printf("dma: copies of split textures are unimplemented\n")
		return
	}

	if alignDown(srcDim.Width, 64) != alignDown(dstDim.Width, 64) || srcSurface.OriginX != 0 || srcSurface.OriginY != 0 {
		CopyBlockLinearToPitchSubrect(
			dstDim, srcDim,
			1, 1, 1, int(dma.Registers.PitchOut()),
			srcSurface.BlockSize.Height(), srcSurface.BlockSize.Depth(),
			srcMappings[0], dstMappings[0],
			int(srcSurface.OriginX), int(srcSurface.OriginY),
		)
	} else {
		CopyBlockLinearToPitch(
			dstDim,
			1, 1, 1, int(dma.Registers.PitchOut()),
			srcSurface.BlockSize.Height(), srcSurface.BlockSize.Depth(),
			srcMappings[0], dstMappings[0],
		)
	}
}

func (dma *MaxwellDma) copyPitchToBlockLinear() {
	dstSurface := dma.Registers.DstSurface()
	if dstSurface.BlockSize.Width() != 1 {
		fmt.Printf("dma: blocklinear surfaces with a block width of %d GOBs are unsupported on the Tegra X1\n", dstSurface.BlockSize.Width())
		return
	}

	srcDim := Dimensions{Width: int(dma.Registers.LineLengthIn()), Height: int(dma.Registers.LineCount()), Depth: int(dstSurface.Depth)}
	// without remapping there is a single byte per pixel
	srcSize := uint64(dma.Registers.PitchIn()) * uint64(srcDim.Height) * uint64(srcDim.Depth)
	srcMappings := dma.Gmmu.TranslateRange(dma.Registers.OffsetIn(), srcSize)

	dstDim := Dimensions{Width: int(dstSurface.Width), Height: int(dstSurface.Height), Depth: int(dstSurface.Depth)}
	dstLayerStride := GetBlockLinearLayerSize(dstDim, 1, 1, 1, dstSurface.BlockSize.Height(), dstSurface.BlockSize.Depth())
	dstMappings := dma.Gmmu.TranslateRange(dma.Registers.OffsetOut(), uint64(dstLayerStride))

	if len(srcMappings) != 1 || len(dstMappings) != 1 {
		fmt.Printf("dma: copies of split textures are unimplemented\n")
		return
	}

	if alignDown(srcDim.Width, 64) != alignDown(dstDim.Width, 64) || dstSurface.OriginX != 0 || dstSurface.OriginY != 0 {
		CopyPitchToBlockLinearSubrect(
			srcDim, dstDim,
			1, 1, 1, int(dma.Registers.PitchIn()),
			dstSurface.BlockSize.Height(), dstSurface.BlockSize.Depth(),
			srcMappings[0], dstMappings[0],
			int(dstSurface.OriginX), int(dstSurface.OriginY),
		)
	} else {
		CopyPitchToBlockLinear(
			srcDim,
			1, 1, 1, int(dma.Registers.PitchIn()),
			dstSurface.BlockSize.Height(), dstSurface.BlockSize.Depth(),
			srcMappings[0], dstMappings[0],
		)
	}
}

func (dma *MaxwellDma) releaseSemaphore() {
	launch := dma.Registers.LaunchDma()
	if launch.ReductionEnable {
		fmt.Printf("dma: semaphore reduction is unimplemented\n")
	}

	address := dma.Registers.SemaphoreAddress()
	payload := uint64(dma.Registers.SemaphorePayload())
	switch launch.SemaphoreType {
	case SEMAPHORE_RELEASE_ONE_WORD:
		dma.Gmmu.Write64(address, payload)
	case SEMAPHORE_RELEASE_FOUR_WORD:
		// the timestamp has to land before the payload, a guest may
		// poll the payload word and then read the timestamp
		timestamp := dma.Clock.GpuTimeTicks()
		dma.Gmmu.Write64(address+8, timestamp)
		dma.Gmmu.Write64(address, payload)
	}
}
