package gm20b

import (
	"bytes"
	"math/rand"
	"testing"
)

type copyRecord struct {
	Dst, Src, Size uint64
}

// Records linear copies instead of performing them
type recordingCopier struct {
	Copies []copyRecord
}

func (c *recordingCopier) Copy(dstVa, srcVa, size uint64) {
	c.Copies = append(c.Copies, copyRecord{Dst: dstVa, Src: srcVa, Size: size})
}

// Counts submissions
type countingSubmitter struct {
	Submits int
}

func (s *countingSubmitter) Submit() {
	s.Submits++
}

// Returns a fixed GPU timestamp
type fixedClock struct {
	Ticks uint64
}

func (c *fixedClock) GpuTimeTicks() uint64 {
	return c.Ticks
}

type writeRecord struct {
	Va, Val uint64
}

// Records guest word writes in arrival order on top of a real GMMU
type recordingAddressSpace struct {
	*GMMU
	Writes []writeRecord
}

func (as *recordingAddressSpace) Write64(va, val uint64) {
	as.Writes = append(as.Writes, writeRecord{Va: va, Val: val})
	as.GMMU.Write64(va, val)
}

// Launch word bits used by the tests
const (
	launchSemaphoreOneWord  = 1 << 3
	launchSemaphoreFourWord = 2 << 3
	launchSrcPitch          = 1 << 7
	launchDstPitch          = 1 << 8
	launchMultiLine         = 1 << 9
	launchRemap             = 1 << 10
)

func newTestDma(copier *recordingCopier, submitter *countingSubmitter) *MaxwellDma {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))
	return NewMaxwellDma(mmu, submitter, copier, &fixedClock{}, NewSyncpoints())
}

func TestPitchToPitchContiguous(t *testing.T) {
	copier := &recordingCopier{}
	submitter := &countingSubmitter{}
	dma := newTestDma(copier, submitter)

	dma.CallMethod(METHOD_OFFSET_IN_UPPER, 0)
	dma.CallMethod(METHOD_OFFSET_IN_LOWER, 0x1000)
	dma.CallMethod(METHOD_OFFSET_OUT_UPPER, 0)
	dma.CallMethod(METHOD_OFFSET_OUT_LOWER, 0x8000)
	dma.CallMethod(METHOD_PITCH_IN, 1024)
	dma.CallMethod(METHOD_PITCH_OUT, 1024)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 1024)
	dma.CallMethod(METHOD_LINE_COUNT, 10)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchMultiLine|launchSrcPitch|launchDstPitch)

	// equal pitches and line length collapse into one contiguous copy
	if len(copier.Copies) != 1 {
		t.Fatalf("expected 1 copy, got %d", len(copier.Copies))
	}
	c := copier.Copies[0]
	if c.Dst != 0x8000 || c.Src != 0x1000 || c.Size != 10240 {
		t.Errorf("unexpected copy 0x%x <- 0x%x (%d bytes)", c.Dst, c.Src, c.Size)
	}
	if submitter.Submits != 1 {
		t.Errorf("expected 1 submit, got %d", submitter.Submits)
	}
}

func TestPitchToPitchStrided(t *testing.T) {
	copier := &recordingCopier{}
	dma := newTestDma(copier, &countingSubmitter{})

	dma.CallMethod(METHOD_OFFSET_IN_LOWER, 0x1000)
	dma.CallMethod(METHOD_OFFSET_OUT_LOWER, 0x8000)
	dma.CallMethod(METHOD_PITCH_IN, 512)
	dma.CallMethod(METHOD_PITCH_OUT, 256)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 128)
	dma.CallMethod(METHOD_LINE_COUNT, 3)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchMultiLine|launchSrcPitch|launchDstPitch)

	if len(copier.Copies) != 3 {
		t.Fatalf("expected 3 copies, got %d", len(copier.Copies))
	}
	for line, c := range copier.Copies {
		wantSrc := uint64(0x1000 + line*512)
		wantDst := uint64(0x8000 + line*256)
		if c.Dst != wantDst || c.Src != wantSrc || c.Size != 128 {
			t.Errorf("line %d: unexpected copy 0x%x <- 0x%x (%d bytes)", line, c.Dst, c.Src, c.Size)
		}
	}
}

func Test1DCopy(t *testing.T) {
	copier := &recordingCopier{}
	submitter := &countingSubmitter{}
	dma := newTestDma(copier, submitter)

	dma.CallMethod(METHOD_OFFSET_IN_LOWER, 0x4000)
	dma.CallMethod(METHOD_OFFSET_OUT_LOWER, 0x9000)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 0x600)
	dma.CallMethod(METHOD_LAUNCH_DMA, 0)

	if len(copier.Copies) != 1 {
		t.Fatalf("expected 1 copy, got %d", len(copier.Copies))
	}
	c := copier.Copies[0]
	if c.Dst != 0x9000 || c.Src != 0x4000 || c.Size != 0x600 {
		t.Errorf("unexpected copy 0x%x <- 0x%x (%d bytes)", c.Dst, c.Src, c.Size)
	}
	// 1D copies do not flush the executor
	if submitter.Submits != 0 {
		t.Errorf("expected no submits, got %d", submitter.Submits)
	}
}

func TestOneWordSemaphore(t *testing.T) {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))
	as := &recordingAddressSpace{GMMU: mmu}
	dma := NewMaxwellDma(as, &countingSubmitter{}, &recordingCopier{}, &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_SET_SEMAPHORE_A, 0)
	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30008)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 0x1234)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchSemaphoreOneWord)

	if len(as.Writes) != 1 {
		t.Fatalf("expected 1 guest write, got %d", len(as.Writes))
	}
	if as.Writes[0].Va != 0x30008 || as.Writes[0].Val != 0x1234 {
		t.Errorf("unexpected write 0x%x <- 0x%x", as.Writes[0].Va, as.Writes[0].Val)
	}
}

func TestFourWordSemaphore(t *testing.T) {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))
	as := &recordingAddressSpace{GMMU: mmu}
	clock := &fixedClock{Ticks: 0x123456789}
	dma := NewMaxwellDma(as, &countingSubmitter{}, &recordingCopier{}, clock, NewSyncpoints())

	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 0xbeef)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchSemaphoreFourWord)

	// the timestamp is written before the payload, a guest polling
	// the payload must observe a valid timestamp
	if len(as.Writes) != 2 {
		t.Fatalf("expected 2 guest writes, got %d", len(as.Writes))
	}
	if as.Writes[0].Va != 0x30008 || as.Writes[0].Val != 0x123456789 {
		t.Errorf("first write is not the timestamp: 0x%x <- 0x%x", as.Writes[0].Va, as.Writes[0].Val)
	}
	if as.Writes[1].Va != 0x30000 || as.Writes[1].Val != 0xbeef {
		t.Errorf("second write is not the payload: 0x%x <- 0x%x", as.Writes[1].Va, as.Writes[1].Val)
	}
}

func TestUnknownSemaphoreType(t *testing.T) {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))
	as := &recordingAddressSpace{GMMU: mmu}
	dma := NewMaxwellDma(as, &countingSubmitter{}, &recordingCopier{}, &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_LAUNCH_DMA, 3<<3)

	if len(as.Writes) != 0 {
		t.Errorf("expected no guest writes, got %d", len(as.Writes))
	}
}

func TestRemapSkipsCopy(t *testing.T) {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))
	as := &recordingAddressSpace{GMMU: mmu}
	copier := &recordingCopier{}
	dma := NewMaxwellDma(as, &countingSubmitter{}, copier, &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 7)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 0x100)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchRemap|launchSemaphoreOneWord)

	// the copy is skipped but the guest still makes forward progress
	if len(copier.Copies) != 0 {
		t.Errorf("expected no copies, got %d", len(copier.Copies))
	}
	if len(as.Writes) != 1 || as.Writes[0].Val != 7 {
		t.Error("semaphore was not released")
	}
}

func TestBlockLinearToBlockLinearSkipped(t *testing.T) {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))
	as := &recordingAddressSpace{GMMU: mmu}
	copier := &recordingCopier{}
	submitter := &countingSubmitter{}
	dma := NewMaxwellDma(as, submitter, copier, &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 9)
	// both layouts blocklinear
	dma.CallMethod(METHOD_LAUNCH_DMA, launchMultiLine|launchSemaphoreOneWord)

	if len(copier.Copies) != 0 {
		t.Errorf("expected no copies, got %d", len(copier.Copies))
	}
	if submitter.Submits != 1 {
		t.Errorf("expected 1 submit, got %d", submitter.Submits)
	}
	if len(as.Writes) != 1 || as.Writes[0].Val != 9 {
		t.Error("semaphore was not released")
	}
}

func TestNonUnitBlockWidthSkipped(t *testing.T) {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))
	as := &recordingAddressSpace{GMMU: mmu}
	dma := NewMaxwellDma(as, &countingSubmitter{}, &recordingCopier{}, &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 5)
	// block width of 2 GOBs is not a thing on the Tegra X1
	dma.CallMethod(METHOD_SET_SRC_BLOCK_SIZE, 1)
	dma.CallMethod(METHOD_SET_SRC_WIDTH, 64)
	dma.CallMethod(METHOD_SET_SRC_HEIGHT, 8)
	dma.CallMethod(METHOD_SET_SRC_DEPTH, 1)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchMultiLine|launchDstPitch|launchSemaphoreOneWord)

	if len(as.Writes) != 1 || as.Writes[0].Val != 5 {
		t.Error("semaphore was not released")
	}
}

func TestSplitMappingSkipped(t *testing.T) {
	mmu := NewGMMU()
	mmu.Map(0x30000, make([]byte, 32))

	// the source surface is split across two host allocations
	mmu.Map(0x10000, make([]byte, 512))
	mmu.Map(0x10200, make([]byte, 512))
	dst := make([]byte, 64*16)
	mmu.Map(0x20000, dst)

	as := &recordingAddressSpace{GMMU: mmu}
	dma := NewMaxwellDma(as, &countingSubmitter{}, &recordingCopier{}, &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_OFFSET_IN_LOWER, 0x10000)
	dma.CallMethod(METHOD_OFFSET_OUT_LOWER, 0x20000)
	dma.CallMethod(METHOD_PITCH_OUT, 64)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 64)
	dma.CallMethod(METHOD_LINE_COUNT, 16)
	dma.CallMethod(METHOD_SET_SRC_BLOCK_SIZE, 1<<4)
	dma.CallMethod(METHOD_SET_SRC_WIDTH, 64)
	dma.CallMethod(METHOD_SET_SRC_HEIGHT, 16)
	dma.CallMethod(METHOD_SET_SRC_DEPTH, 1)
	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 3)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchMultiLine|launchDstPitch|launchSemaphoreOneWord)

	for _, b := range dst {
		if b != 0 {
			t.Fatal("destination was written despite the split source")
		}
	}
	if len(as.Writes) != 1 || as.Writes[0].Val != 3 {
		t.Error("semaphore was not released")
	}
}

func TestDmaDeswizzle(t *testing.T) {
	dim := Dimensions{64, 16, 1}
	rng := rand.New(rand.NewSource(7))
	linear := make([]byte, 64*16)
	rng.Read(linear)

	blockLinear := make([]byte, GetBlockLinearLayerSize(dim, 1, 1, 1, 2, 1))
	CopyLinearToBlockLinear(dim, 1, 1, 1, 2, 1, linear, blockLinear)

	mmu := NewGMMU()
	dst := make([]byte, 64*16)
	semaphore := make([]byte, 16)
	mmu.Map(0x10000, blockLinear)
	mmu.Map(0x20000, dst)
	mmu.Map(0x30000, semaphore)

	submitter := &countingSubmitter{}
	dma := NewMaxwellDma(mmu, submitter, NewInterconnect(mmu), &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_OFFSET_IN_LOWER, 0x10000)
	dma.CallMethod(METHOD_OFFSET_OUT_LOWER, 0x20000)
	dma.CallMethod(METHOD_PITCH_OUT, 64)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 64)
	dma.CallMethod(METHOD_LINE_COUNT, 16)
	dma.CallMethod(METHOD_SET_SRC_BLOCK_SIZE, 1<<4)
	dma.CallMethod(METHOD_SET_SRC_WIDTH, 64)
	dma.CallMethod(METHOD_SET_SRC_HEIGHT, 16)
	dma.CallMethod(METHOD_SET_SRC_DEPTH, 1)
	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 1)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchMultiLine|launchDstPitch|launchSemaphoreOneWord)

	if !bytes.Equal(dst, linear) {
		t.Error("deswizzled surface differs from the original")
	}
	if submitter.Submits != 1 {
		t.Errorf("expected 1 submit, got %d", submitter.Submits)
	}
	if mmu.Read64(0x30000) != 1 {
		t.Error("semaphore was not released")
	}
}

func TestDmaSwizzleSubrect(t *testing.T) {
	blDim := Dimensions{256, 64, 1}
	pitchDim := Dimensions{16, 16, 1}
	originX, originY := 48, 32

	rng := rand.New(rand.NewSource(8))
	src := make([]byte, 16*16)
	rng.Read(src)

	mmu := NewGMMU()
	blockLinear := make([]byte, GetBlockLinearLayerSize(blDim, 1, 1, 1, 4, 1))
	semaphore := make([]byte, 16)
	mmu.Map(0x10000, src)
	mmu.Map(0x20000, blockLinear)
	mmu.Map(0x30000, semaphore)

	dma := NewMaxwellDma(mmu, &countingSubmitter{}, NewInterconnect(mmu), &fixedClock{}, NewSyncpoints())

	dma.CallMethod(METHOD_OFFSET_IN_LOWER, 0x10000)
	dma.CallMethod(METHOD_OFFSET_OUT_LOWER, 0x20000)
	dma.CallMethod(METHOD_PITCH_IN, 16)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 16)
	dma.CallMethod(METHOD_LINE_COUNT, 16)
	dma.CallMethod(METHOD_SET_DST_BLOCK_SIZE, 2<<4)
	dma.CallMethod(METHOD_SET_DST_WIDTH, 256)
	dma.CallMethod(METHOD_SET_DST_HEIGHT, 64)
	dma.CallMethod(METHOD_SET_DST_DEPTH, 1)
	dma.CallMethod(METHOD_SET_DST_ORIGIN, uint32(originY)<<16|uint32(originX))
	dma.CallMethod(METHOD_SET_SEMAPHORE_B, 0x30000)
	dma.CallMethod(METHOD_SET_SEMAPHORE_PAYLOAD, 1)
	dma.CallMethod(METHOD_LAUNCH_DMA, launchMultiLine|launchSrcPitch|launchSemaphoreOneWord)

	expected := make([]byte, len(blockLinear))
	CopyPitchToBlockLinearSubrect(pitchDim, blDim, 1, 1, 1, 16, 4, 1,
		src, expected, originX, originY)

	if !bytes.Equal(blockLinear, expected) {
		t.Error("engine subrect copy differs from the direct copy")
	}
}

func TestBatchNonInc(t *testing.T) {
	copier := &recordingCopier{}
	dma := newTestDma(copier, &countingSubmitter{})

	dma.CallMethod(METHOD_OFFSET_IN_LOWER, 0x1000)
	dma.CallMethod(METHOD_OFFSET_OUT_LOWER, 0x2000)
	dma.CallMethod(METHOD_LINE_LENGTH_IN, 0x10)

	// every write to the non-incrementing launch register fires
	dma.CallMethodBatchNonInc(METHOD_LAUNCH_DMA, []uint32{0, 0})
	if len(copier.Copies) != 2 {
		t.Fatalf("expected 2 copies, got %d", len(copier.Copies))
	}

	// batch writes to data registers just overwrite the register
	dma.CallMethodBatchNonInc(METHOD_LINE_LENGTH_IN, []uint32{0x20, 0x40})
	if dma.Registers.LineLengthIn() != 0x40 {
		t.Error("batch write did not land in the register")
	}
}
