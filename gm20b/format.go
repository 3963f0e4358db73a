package gm20b

// Describes the memory footprint of a texture format. `BlockWidth` and
// `BlockHeight` are the dimensions of one compression block in texels
// (1x1 for uncompressed formats), `Bpb` is the amount of bytes per
// compression block
type Format struct {
	BlockWidth  int
	BlockHeight int
	Bpb         int // Bytes per block, one of 1/2/4/8/12/16
}

// Common Maxwell texture formats
var (
	FORMAT_R8      = Format{1, 1, 1}
	FORMAT_R16     = Format{1, 1, 2}
	FORMAT_RG8     = Format{1, 1, 2}
	FORMAT_RGBA8   = Format{1, 1, 4}
	FORMAT_RG16    = Format{1, 1, 4}
	FORMAT_RGBA16F = Format{1, 1, 8}
	FORMAT_RG32F   = Format{1, 1, 8}
	FORMAT_RGB32F  = Format{1, 1, 12} // three-channel 32 bit, cannot be coalesced
	FORMAT_RGBA32F = Format{1, 1, 16}
	FORMAT_BC1     = Format{4, 4, 8}
	FORMAT_BC2     = Format{4, 4, 16}
	FORMAT_BC3     = Format{4, 4, 16}
)

// Returns the tightly packed size in bytes of a `width` x `height` x
// `depth` texel region in this format
func (f *Format) GetSize(width, height, depth int) int {
	return divCeil(width, f.BlockWidth) * f.Bpb * divCeil(height, f.BlockHeight) * depth
}
