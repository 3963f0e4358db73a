package gm20b

// Keeps track of the emulation time as seen by the GPU. Cycles are
// measured in the GM20B timestamp clock; four-word semaphore releases
// sample it for their timestamp word
type TimeHandler struct {
	Cycles uint64 // Current execution time in GPU timestamp ticks
}

// Returns a new instance of TimeHandler
func NewTimeHandler() *TimeHandler {
	return &TimeHandler{}
}

// Advance the current time by `cycles`
func (th *TimeHandler) Tick(cycles uint64) {
	th.Cycles += cycles
}

// Returns the current GPU timestamp in hardware ticks
func (th *TimeHandler) GpuTimeTicks() uint64 {
	return th.Cycles
}
