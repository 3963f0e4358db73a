package gm20b

// Block-linear tiling constants. These are fixed on the Tegra X1: a
// sector is 16 bytes by 2 lines, a GOB ("Group Of Bytes") is 64 bytes
// by 8 lines by 1 slice (512 bytes)
const (
	SECTOR_WIDTH        = 16 // Width of a sector in bytes
	SECTOR_HEIGHT       = 2  // Height of a sector in lines
	GOB_WIDTH           = 64 // Width of a GOB in bytes
	GOB_HEIGHT          = 8  // Height of a GOB in lines
	GOB_SIZE            = GOB_WIDTH * GOB_HEIGHT
	SECTOR_LINES_IN_GOB = (GOB_WIDTH / SECTOR_WIDTH) * GOB_HEIGHT // Lines of sectors inside a GOB
)

// Layout of a single mip level of a block-linear surface
type MipLevelLayout struct {
	Dimensions       Dimensions // Dimensions of the mip level
	LinearSize       int        // Tightly packed size of the level
	TargetLinearSize int        // Tightly packed size in the target format (for decompression views)
	BlockLinearSize  int        // Size of the level when block-linear tiled
	GobBlockHeight   int        // GOB block height used by the level
	GobBlockDepth    int        // GOB block depth used by the level
}

// Returns the size in bytes of a single layer of a block-linear
// surface. `formatBlockWidth`/`formatBlockHeight` are the format
// compression block dimensions in texels, `formatBpb` the bytes per
// compression block, `gobBlockHeight`/`gobBlockDepth` the GOB block
// configuration (block width is always one GOB on the Tegra X1)
func GetBlockLinearLayerSize(dim Dimensions, formatBlockWidth, formatBlockHeight, formatBpb, gobBlockHeight, gobBlockDepth int) int {
	// width of a ROB line in format blocks, then in bytes (incl. padding GOB)
	robLineWidth := divCeil(dim.Width, formatBlockWidth)
	robLineBytes := alignUp(robLineWidth*formatBpb, GOB_WIDTH)

	robHeight := GOB_HEIGHT * gobBlockHeight
	surfaceHeightLines := divCeil(dim.Height, formatBlockHeight)
	surfaceHeightRobs := divCeil(surfaceHeightLines, robHeight)

	// depth in slices, aligned to include padding Z-axis GOBs
	robDepth := alignUp(dim.Depth, gobBlockDepth)

	return robLineBytes * robHeight * surfaceHeightRobs * robDepth
}

// Shrinks a block's GOB count to fit a surface. Small mip levels
// cannot fill large blocks, the hardware rounds the block size down to
// the smallest power-of-two GOB count that still contains the surface
func CalculateBlockGobs(blockGobs, surfaceGobs int) int {
	if surfaceGobs > blockGobs {
		return blockGobs
	}
	return bitCeil(surfaceGobs)
}

// Returns the total size in bytes of a block-linear surface with
// `levelCount` mip levels. If `isMultiLayer` is true the size is
// aligned so every layer starts on a block boundary
func GetBlockLinearTotalSize(dim Dimensions, formatBlockWidth, formatBlockHeight, formatBpb, gobBlockHeight, gobBlockDepth, levelCount int, isMultiLayer bool) int {
	// surface size in GOBs on every axis
	gobsWidth := divCeil(divCeil(dim.Width, formatBlockWidth)*formatBpb, GOB_WIDTH)
	gobsHeight := divCeil(divCeil(dim.Height, formatBlockHeight), GOB_HEIGHT)
	gobsDepth := dim.Depth

	totalSize := 0
	layerAlignment := GOB_WIDTH * GOB_HEIGHT * gobBlockHeight * gobBlockDepth
	for i := 0; i < levelCount; i++ {
		totalSize += (GOB_WIDTH * gobsWidth) * (GOB_HEIGHT * alignUp(gobsHeight, gobBlockHeight)) * alignUp(gobsDepth, gobBlockDepth)

		// successively halve every dimension until the final level is reached
		gobsWidth = maxInt(gobsWidth/2, 1)
		gobsHeight = maxInt(gobsHeight/2, 1)
		gobsDepth = maxInt(gobsDepth/2, 1)

		gobBlockHeight = CalculateBlockGobs(gobBlockHeight, gobsHeight)
		gobBlockDepth = CalculateBlockGobs(gobBlockDepth, gobsDepth)
	}

	if isMultiLayer {
		return alignUp(totalSize, layerAlignment)
	}
	return totalSize
}

// Returns the layout of every mip level of a block-linear surface.
// `targetFormat*` describe the format of a decompressed view of the
// texture; a `targetFormatBpb` of 0 means no target format
func GetBlockLinearMipLayout(dim Dimensions, formatBlockWidth, formatBlockHeight, formatBpb, targetFormatBlockWidth, targetFormatBlockHeight, targetFormatBpb, gobBlockHeight, gobBlockDepth, levelCount int) []MipLevelLayout {
	mipLevels := make([]MipLevelLayout, 0, levelCount)

	gobsWidth := divCeil(divCeil(dim.Width, formatBlockWidth)*formatBpb, GOB_WIDTH)
	gobsHeight := divCeil(divCeil(dim.Height, formatBlockHeight), GOB_HEIGHT)
	// a GOB is always a single slice deep, so the surface depth in GOBs
	// is the depth dimension itself

	for i := 0; i < levelCount; i++ {
		linearSize := divCeil(dim.Width, formatBlockWidth) * formatBpb * divCeil(dim.Height, formatBlockHeight) * dim.Depth
		targetLinearSize := linearSize
		if targetFormatBpb != 0 {
			targetLinearSize = divCeil(dim.Width, targetFormatBlockWidth) * targetFormatBpb * divCeil(dim.Height, targetFormatBlockHeight) * dim.Depth
		}

		mipLevels = append(mipLevels, MipLevelLayout{
			Dimensions:       dim,
			LinearSize:       linearSize,
			TargetLinearSize: targetLinearSize,
			BlockLinearSize:  (GOB_WIDTH * gobsWidth) * (GOB_HEIGHT * alignUp(gobsHeight, gobBlockHeight)) * alignUp(dim.Depth, gobBlockDepth),
			GobBlockHeight:   gobBlockHeight,
			GobBlockDepth:    gobBlockDepth,
		})

		gobsWidth = maxInt(gobsWidth/2, 1)
		gobsHeight = maxInt(gobsHeight/2, 1)

		dim.Width = maxInt(dim.Width/2, 1)
		dim.Height = maxInt(dim.Height/2, 1)
		dim.Depth = maxInt(dim.Depth/2, 1)

		gobBlockHeight = CalculateBlockGobs(gobBlockHeight, gobsHeight)
		gobBlockDepth = CalculateBlockGobs(gobBlockDepth, dim.Depth)
	}

	return mipLevels
}
