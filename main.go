package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/zeozeozeo/gotegra/gm20b"
)

// Guest virtual addresses used by the viewer channel
const (
	SRC_VA       = 0x100000000
	DST_VA       = 0x200000000
	SEMAPHORE_VA = 0x300000000
)

type Viewer struct {
	Image  *ebiten.Image
	Width  int
	Height int
}

func (v *Viewer) Update() error {
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.DrawImage(v.Image, &ebiten.DrawImageOptions{})
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.Width, v.Height
}

func main() {
	// parse arguments
	inputPath := flag.String("input", "surface.bin", "path to the raw block-linear dump")
	width := flag.Int("width", 256, "surface width in texels")
	height := flag.Int("height", 256, "surface height in texels")
	bpb := flag.Int("bpb", 4, "bytes per texel block (1, 2, 4, 8, 12 or 16)")
	gobHeight := flag.Int("gobheight", 16, "GOB block height (power of two up to 32)")
	gobDepth := flag.Int("gobdepth", 1, "GOB block depth (power of two up to 32)")
	pitch := flag.Int("pitch", 0, "destination row stride in bytes (0 = tightly packed)")
	flag.Parse()

	pitchBytes := *pitch
	if pitchBytes == 0 {
		pitchBytes = *width * *bpb
	}

	blockLinear := loadSurface(*inputPath, *width, *height, *bpb, *gobHeight, *gobDepth)
	deswizzled := deswizzle(blockLinear, *width, *height, *bpb, *gobHeight, *gobDepth, pitchBytes)

	image := ebiten.NewImage(*width, *height)
	image.ReplacePixels(toRGBA(deswizzled, *width, *height, *bpb, pitchBytes))

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("gotegra surface viewer")
	viewer := &Viewer{Image: image, Width: *width, Height: *height}
	if err := ebiten.RunGame(viewer); err != nil {
		panic(err)
	}
}

func loadSurface(path string, width, height, bpb, gobHeight, gobDepth int) []byte {
	log.Printf("loading surface \"%s\"", path)
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	dim := gm20b.Dimensions{Width: width * bpb, Height: height, Depth: 1}
	size := gm20b.GetBlockLinearLayerSize(dim, 1, 1, 1, gobHeight, gobDepth)
	if len(data) < size {
		log.Printf("surface dump is %d bytes, padding to %d", len(data), size)
		data = append(data, make([]byte, size-len(data))...)
	}

	log.Printf("loaded surface in %s", time.Since(start))
	return data[:size]
}

// Runs a real DMA launch through the engine: maps the dump and a
// destination surface into an address space, programs the method
// registers and triggers a blocklinear to pitch copy
func deswizzle(blockLinear []byte, width, height, bpb, gobHeight, gobDepth, pitchBytes int) []byte {
	widthBytes := width * bpb
	pitchOut := make([]byte, pitchBytes*height)
	semaphore := make([]byte, 16)

	mmu := gm20b.NewGMMU()
	mmu.Map(SRC_VA, blockLinear)
	mmu.Map(DST_VA, pitchOut)
	mmu.Map(SEMAPHORE_VA, semaphore)

	clock := gm20b.NewTimeHandler()
	dma := gm20b.NewMaxwellDma(mmu, gm20b.NewExecutor(), gm20b.NewInterconnect(mmu), clock, gm20b.NewSyncpoints())

	dma.CallMethod(gm20b.METHOD_OFFSET_IN_UPPER, uint32(SRC_VA>>32))
	dma.CallMethod(gm20b.METHOD_OFFSET_IN_LOWER, uint32(SRC_VA&0xffffffff))
	dma.CallMethod(gm20b.METHOD_OFFSET_OUT_UPPER, uint32(DST_VA>>32))
	dma.CallMethod(gm20b.METHOD_OFFSET_OUT_LOWER, uint32(DST_VA&0xffffffff))
	dma.CallMethod(gm20b.METHOD_PITCH_OUT, uint32(pitchBytes))
	dma.CallMethod(gm20b.METHOD_LINE_LENGTH_IN, uint32(widthBytes))
	dma.CallMethod(gm20b.METHOD_LINE_COUNT, uint32(height))
	dma.CallMethod(gm20b.METHOD_SET_SRC_BLOCK_SIZE, uint32(log2(gobHeight)<<4|log2(gobDepth)<<8))
	dma.CallMethod(gm20b.METHOD_SET_SRC_WIDTH, uint32(widthBytes))
	dma.CallMethod(gm20b.METHOD_SET_SRC_HEIGHT, uint32(height))
	dma.CallMethod(gm20b.METHOD_SET_SRC_DEPTH, 1)
	dma.CallMethod(gm20b.METHOD_SET_SEMAPHORE_A, uint32(SEMAPHORE_VA>>32))
	dma.CallMethod(gm20b.METHOD_SET_SEMAPHORE_B, uint32(SEMAPHORE_VA&0xffffffff))
	dma.CallMethod(gm20b.METHOD_SET_SEMAPHORE_PAYLOAD, 1)

	clock.Tick(1)

	launch := gm20b.LaunchDma{
		DataTransferType: gm20b.DATA_TRANSFER_NON_PIPELINED,
		SemaphoreType:    gm20b.SEMAPHORE_RELEASE_ONE_WORD,
		SrcMemoryLayout:  gm20b.MEMORY_LAYOUT_BLOCK_LINEAR,
		DstMemoryLayout:  gm20b.MEMORY_LAYOUT_PITCH,
		MultiLineEnable:  true,
	}
	dma.CallMethod(gm20b.METHOD_LAUNCH_DMA, launch.Word())

	if mmu.Read64(SEMAPHORE_VA) != 1 {
		log.Printf("semaphore was not released")
	}
	return pitchOut
}

// Expands the deswizzled surface to RGBA for display, dropping the
// row stride padding
func toRGBA(pitch []byte, width, height, bpb, pitchBytes int) []byte {
	rgba := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := y*pitchBytes + x*bpb
			dst := (y*width + x) * 4
			switch bpb {
			case 4:
				copy(rgba[dst:], pitch[src:src+4])
			default:
				// show the first byte of every block as grayscale
				v := pitch[src]
				rgba[dst] = v
				rgba[dst+1] = v
				rgba[dst+2] = v
				rgba[dst+3] = 0xff
			}
		}
	}
	return rgba
}

func log2(v int) int {
	r := 0
	for v > 1 {
		v >>= 1
		r++
	}
	return r
}
