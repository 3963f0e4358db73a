package gm20b

// Texture dimensions in texels. A depth of 1 denotes a 2D surface
type Dimensions struct {
	Width  int
	Height int
	Depth  int
}

// Returns a new 2D dimensions value
func NewDimensions2D(width, height int) Dimensions {
	return Dimensions{Width: width, Height: height, Depth: 1}
}

// Tiling mode of a guest surface
type TileMode uint8

const (
	TILE_MODE_PITCH TileMode = 0 // Row-major with a stride
	TILE_MODE_BLOCK TileMode = 1 // Block-linear (swizzled)
)

// Tiling parameters of a guest surface
type TileConfig struct {
	Mode        TileMode
	Pitch       int // Row stride in bytes, only valid for TILE_MODE_PITCH
	BlockHeight int // GOB block height, only valid for TILE_MODE_BLOCK
	BlockDepth  int // GOB block depth, only valid for TILE_MODE_BLOCK
}

// A texture as the guest sees it: dimensions, format and tiling
type GuestTexture struct {
	Dimensions Dimensions
	Format     Format
	TileConfig TileConfig
}

// Copies a pitch-linear guest texture into a tightly packed linear
// buffer, dropping the stride padding
func CopyPitchLinearToLinear(guest *GuestTexture, guestInput, linearOutput []byte) {
	sizeLine := guest.Format.GetSize(guest.Dimensions.Width, 1, 1)
	sizeStride := guest.TileConfig.Pitch

	inputLine := 0
	outputLine := 0
	for line := 0; line < guest.Dimensions.Height; line++ {
		copy(linearOutput[outputLine:outputLine+sizeLine], guestInput[inputLine:inputLine+sizeLine])
		inputLine += sizeStride
		outputLine += sizeLine
	}
}

// Copies a tightly packed linear buffer into a pitch-linear guest
// texture, leaving the stride padding untouched
func CopyLinearToPitchLinear(guest *GuestTexture, linearInput, guestOutput []byte) {
	sizeLine := guest.Format.GetSize(guest.Dimensions.Width, 1, 1)
	sizeStride := guest.TileConfig.Pitch

	inputLine := 0
	outputLine := 0
	for line := 0; line < guest.Dimensions.Height; line++ {
		copy(guestOutput[outputLine:outputLine+sizeLine], linearInput[inputLine:inputLine+sizeLine])
		inputLine += sizeLine
		outputLine += sizeStride
	}
}
