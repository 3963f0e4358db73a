package gm20b

// Mediates linear guest-to-guest copies through the GPU address space.
// Unlike the texture copy paths, linear copies walk split mappings
// span by span
type Interconnect struct {
	Gmmu *GMMU
}

// Returns a new interconnect over `mmu`
func NewInterconnect(mmu *GMMU) *Interconnect {
	return &Interconnect{Gmmu: mmu}
}

// Copies `size` bytes from the GPU virtual address `srcVa` to `dstVa`
func (inter *Interconnect) Copy(dstVa, srcVa, size uint64) {
	srcSpans := inter.Gmmu.TranslateRange(srcVa, size)
	dstSpans := inter.Gmmu.TranslateRange(dstVa, size)

	var src, dst []byte
	for len(srcSpans) > 0 || len(src) > 0 {
		if len(src) == 0 {
			src = srcSpans[0]
			srcSpans = srcSpans[1:]
		}
		if len(dst) == 0 {
			if len(dstSpans) == 0 {
				break
			}
			dst = dstSpans[0]
			dstSpans = dstSpans[1:]
		}
		n := copy(dst, src)
		src = src[n:]
		dst = dst[n:]
	}
}

// Records work to be flushed before a DMA copy reads guest memory.
// The real command recorder lives on the host GPU side, this keeps the
// same submission contract
type Executor struct {
	Pending []func() // Recorded work, drained in order by Submit
}

// Returns a new executor with no pending work
func NewExecutor() *Executor {
	return &Executor{}
}

// Records `work` for the next submission
func (exec *Executor) Record(work func()) {
	exec.Pending = append(exec.Pending, work)
}

// Drains all recorded work. Acts as a full barrier: once Submit
// returns, all prior GPU work observable to the channel is complete
func (exec *Executor) Submit() {
	for _, work := range exec.Pending {
		work()
	}
	exec.Pending = nil
}
