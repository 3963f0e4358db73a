package gm20b

// Number of host1x syncpoints on the Tegra X1
const SYNCPOINT_COUNT = 192

// The host1x syncpoint bundle. The DMA copy path does not signal
// syncpoints itself, the handle is carried for engines that do
type Syncpoints struct {
	Counters [SYNCPOINT_COUNT]uint32
}

// Returns a new syncpoint bundle with all counters at zero
func NewSyncpoints() *Syncpoints {
	return &Syncpoints{}
}

// Increments syncpoint `id` and returns the new value
func (sp *Syncpoints) Increment(id uint32) uint32 {
	sp.Counters[id]++
	return sp.Counters[id]
}

// Returns the current value of syncpoint `id`
func (sp *Syncpoints) Value(id uint32) uint32 {
	return sp.Counters[id]
}

// Returns true if syncpoint `id` has reached `threshold`
func (sp *Syncpoints) HasReached(id, threshold uint32) bool {
	return int32(sp.Counters[id]-threshold) >= 0
}
