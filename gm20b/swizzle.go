package gm20b

// Copy direction of the swizzle routines
type CopyDirection uint8

const (
	BLOCK_LINEAR_TO_PITCH CopyDirection = 0 // Deswizzle: load from the swizzled side
	PITCH_TO_BLOCK_LINEAR CopyDirection = 1 // Swizzle: store to the swizzled side
)

// Fixed width element copies, one per power of two bpb. Keeping the
// copy length constant lets the compiler emit wide loads/stores
func copyElem1(dst, src []byte)  { dst[0] = src[0] }
func copyElem2(dst, src []byte)  { copy(dst[:2], src[:2]) }
func copyElem4(dst, src []byte)  { copy(dst[:4], src[:4]) }
func copyElem8(dst, src []byte)  { copy(dst[:8], src[:8]) }
func copyElem16(dst, src []byte) { copy(dst[:16], src[:16]) }

// Returns the element copy routine for `bpb`. 12 byte elements go
// through copyElem12Split instead
func elemCopyFunc(bpb int) func(dst, src []byte) {
	switch bpb {
	case 1:
		return copyElem1
	case 2:
		return copyElem2
	case 4:
		return copyElem4
	case 8:
		return copyElem8
	case 16:
		return copyElem16
	}
	panicFmt("swizzle: unsupported bytes per block %d", bpb)
	return nil
}

// Copies one 12 byte element as three 4 byte words, each at its own
// interleaved offset. A contiguous 12 byte move would spill across a
// sector atom whenever the element starts 4 or 12 bytes into one,
// clobbering bytes that belong to other lines
func copyElem12Split(dir CopyDirection, blockLinear, pitch []byte, swizzledYZOffset, blockSize, xBytes, pitchOffset int) {
	for part := 0; part < 12; part += 4 {
		x := xBytes + part
		swizzledOffset := swizzledYZOffset + (x/GOB_WIDTH)*blockSize + gobXOffset(x)
		if dir == BLOCK_LINEAR_TO_PITCH {
			copyElem4(pitch[pitchOffset+part:], blockLinear[swizzledOffset:])
		} else {
			copyElem4(blockLinear[swizzledOffset:], pitch[pitchOffset+part:])
		}
	}
}

// Interleaves the X byte offset `xBytes` inside a GOB. The 16 byte
// chunks at 0x00/0x10/0x20/0x30 of a line map to sector offsets
// 0x00/0x20/0x100/0x120 depending on bits 4 and 5 of the offset, bits
// 0-3 are kept as they are
func gobXOffset(xBytes int) int {
	return ((xBytes&0x3f)>>5)<<8 + ((xBytes&0x1f)>>4)<<5 + xBytes&0x0f
}

// Interleaves the line index `line` inside a GOB
func gobYOffset(line int) int {
	return ((line&0x07)>>1)<<6 + (line&0x01)<<4
}

// Copies pixel data between a pitch-linear and a block-linear texture
// covering the full surface. `pitchAmount` of 0 means the pitch side
// is tightly packed
func copyBlockLinear(dir CopyDirection, dim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
	gobBlockHeight, gobBlockDepth int,
	blockLinear, pitch []byte) {
	textureWidth := divCeil(dim.Width, formatBlockWidth)
	textureWidthBytes := textureWidth * formatBpb
	textureWidthAlignedBytes := alignUp(textureWidthBytes, GOB_WIDTH)

	// Widen the element while the row width stays a multiple of the
	// doubled element, so the inner loop moves up to 16 bytes at a
	// time. 12 byte elements cannot be widened
	bpb := formatBpb
	if bpb != 12 {
		for bpb != 16 {
			if isAligned(textureWidthBytes, bpb<<1) {
				textureWidth /= 2
				bpb <<= 1
			} else {
				break
			}
		}
	}

	textureHeight := divCeil(dim.Height, formatBlockHeight)
	robHeight := gobBlockHeight * GOB_HEIGHT

	alignedDepth := alignUp(dim.Depth, gobBlockDepth)

	pitchBytes := textureWidthBytes
	if pitchAmount != 0 {
		pitchBytes = pitchAmount
	}

	blockSize := robHeight * GOB_WIDTH * alignedDepth
	var copyElem func(dst, src []byte)
	if bpb != 12 {
		copyElem = elemCopyFunc(bpb)
	}

	pitchOffset := 0
	blockLinearBase := 0
	for slice := 0; slice < dim.Depth; slice++ {
		for line := 0; line < textureHeight; line++ {
			robOffset := textureWidthAlignedBytes * alignDown(line, robHeight) * alignedDepth
			blockHeight := (line & (robHeight - 1)) / GOB_HEIGHT
			// Y offset in entire GOBs, then inside the current GOB
			yOffset := blockHeight*GOB_SIZE + gobYOffset(line)

			deSwizzledOffset := pitchOffset
			swizzledYZOffset := blockLinearBase + robOffset + yOffset

			for pixel := 0; pixel < textureWidth; pixel++ {
				xBytes := pixel * bpb
				if bpb == 12 {
					copyElem12Split(dir, blockLinear, pitch, swizzledYZOffset, blockSize, xBytes, deSwizzledOffset)
					deSwizzledOffset += bpb
					continue
				}
				blockOffset := (xBytes / GOB_WIDTH) * blockSize
				swizzledOffset := swizzledYZOffset + blockOffset + gobXOffset(xBytes)

				if dir == BLOCK_LINEAR_TO_PITCH {
					copyElem(pitch[deSwizzledOffset:], blockLinear[swizzledOffset:])
				} else {
					copyElem(blockLinear[swizzledOffset:], pitch[deSwizzledOffset:])
				}
				deSwizzledOffset += bpb
			}
			pitchOffset += pitchBytes
		}
		// the next slice starts one GOB further down in Z inside the block
		blockLinearBase += GOB_SIZE * gobBlockHeight
	}
}

// Copies pixel data between a pitch texture and a window of a
// block-linear texture. The pitch texture must fit inside the
// block-linear one after offsetting by `originX`/`originY` (in texels)
func copyBlockLinearSubrect(dir CopyDirection, pitchDim, blockLinearDim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
	gobBlockHeight, gobBlockDepth int,
	blockLinear, pitch []byte,
	originX, originY int) {
	pitchTextureWidth := divCeil(pitchDim.Width, formatBlockWidth)
	pitchTextureWidthBytes := pitchTextureWidth * formatBpb
	blockLinearTextureWidthAlignedBytes := alignUp(divCeil(blockLinearDim.Width, formatBlockWidth)*formatBpb, GOB_WIDTH)

	actualOriginX := divCeil(originX, formatBlockWidth)
	originXBytes := actualOriginX * formatBpb

	// Widening is only possible when the copy starts and ends on a
	// doubled element boundary, a partial first GOB prevents it
	bpb := formatBpb
	if bpb != 12 {
		for bpb != 16 {
			if isAligned(pitchTextureWidthBytes, bpb<<1) && isAligned(originXBytes, bpb<<1) {
				pitchTextureWidth /= 2
				bpb <<= 1
			} else {
				break
			}
		}
	}
	actualOriginX = originXBytes / bpb

	pitchTextureHeight := divCeil(pitchDim.Height, formatBlockHeight)
	robHeight := gobBlockHeight * GOB_HEIGHT

	originYOffset := divCeil(originY, formatBlockHeight)

	alignedDepth := alignUp(blockLinearDim.Depth, gobBlockDepth)

	pitchBytes := pitchTextureWidthBytes
	if pitchAmount != 0 {
		pitchBytes = pitchAmount
	}

	blockSize := robHeight * GOB_WIDTH * alignedDepth
	var copyElem func(dst, src []byte)
	if bpb != 12 {
		copyElem = elemCopyFunc(bpb)
	}

	pitchOffset := 0
	blockLinearBase := 0
	for slice := 0; slice < blockLinearDim.Depth; slice++ {
		for line := 0; line < pitchTextureHeight; line++ {
			surfaceLine := originYOffset + line
			robOffset := blockLinearTextureWidthAlignedBytes * alignDown(surfaceLine, robHeight) * alignedDepth
			blockHeight := (surfaceLine & (robHeight - 1)) / GOB_HEIGHT
			yOffset := blockHeight*GOB_SIZE + gobYOffset(surfaceLine)

			deSwizzledOffset := pitchOffset
			swizzledYZOffset := blockLinearBase + robOffset + yOffset

			for pixel := 0; pixel < pitchTextureWidth; pixel++ {
				xBytes := (actualOriginX + pixel) * bpb
				if bpb == 12 {
					copyElem12Split(dir, blockLinear, pitch, swizzledYZOffset, blockSize, xBytes, deSwizzledOffset)
					deSwizzledOffset += bpb
					continue
				}
				blockOffset := (xBytes / GOB_WIDTH) * blockSize
				swizzledOffset := swizzledYZOffset + blockOffset + gobXOffset(xBytes)

				if dir == BLOCK_LINEAR_TO_PITCH {
					copyElem(pitch[deSwizzledOffset:], blockLinear[swizzledOffset:])
				} else {
					copyElem(blockLinear[swizzledOffset:], pitch[deSwizzledOffset:])
				}
				deSwizzledOffset += bpb
			}
			pitchOffset += pitchBytes
		}
		blockLinearBase += GOB_SIZE * gobBlockHeight
	}
}

// Deswizzles a full block-linear texture into a pitch-linear buffer
func CopyBlockLinearToPitch(dim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
	gobBlockHeight, gobBlockDepth int,
	blockLinear, pitch []byte) {
	copyBlockLinear(BLOCK_LINEAR_TO_PITCH, dim,
		formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
		gobBlockHeight, gobBlockDepth,
		blockLinear, pitch)
}

// Swizzles a pitch-linear buffer into a full block-linear texture
func CopyPitchToBlockLinear(dim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
	gobBlockHeight, gobBlockDepth int,
	pitch, blockLinear []byte) {
	copyBlockLinear(PITCH_TO_BLOCK_LINEAR, dim,
		formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
		gobBlockHeight, gobBlockDepth,
		blockLinear, pitch)
}

// Deswizzles a full block-linear texture into a tightly packed linear
// buffer
func CopyBlockLinearToLinear(dim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb,
	gobBlockHeight, gobBlockDepth int,
	blockLinear, linear []byte) {
	copyBlockLinear(BLOCK_LINEAR_TO_PITCH, dim,
		formatBlockWidth, formatBlockHeight, formatBpb, 0,
		gobBlockHeight, gobBlockDepth,
		blockLinear, linear)
}

// Swizzles a tightly packed linear buffer into a full block-linear
// texture
func CopyLinearToBlockLinear(dim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb,
	gobBlockHeight, gobBlockDepth int,
	linear, blockLinear []byte) {
	copyBlockLinear(PITCH_TO_BLOCK_LINEAR, dim,
		formatBlockWidth, formatBlockHeight, formatBpb, 0,
		gobBlockHeight, gobBlockDepth,
		blockLinear, linear)
}

// Deswizzles a window of a block-linear texture into a pitch buffer.
// `originX`/`originY` are the window position inside the block-linear
// texture in texels
func CopyBlockLinearToPitchSubrect(pitchDim, blockLinearDim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
	gobBlockHeight, gobBlockDepth int,
	blockLinear, pitch []byte,
	originX, originY int) {
	copyBlockLinearSubrect(BLOCK_LINEAR_TO_PITCH, pitchDim, blockLinearDim,
		formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
		gobBlockHeight, gobBlockDepth,
		blockLinear, pitch,
		originX, originY)
}

// Swizzles a pitch buffer into a window of a block-linear texture
func CopyPitchToBlockLinearSubrect(pitchDim, blockLinearDim Dimensions,
	formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
	gobBlockHeight, gobBlockDepth int,
	pitch, blockLinear []byte,
	originX, originY int) {
	copyBlockLinearSubrect(PITCH_TO_BLOCK_LINEAR, pitchDim, blockLinearDim,
		formatBlockWidth, formatBlockHeight, formatBpb, pitchAmount,
		gobBlockHeight, gobBlockDepth,
		blockLinear, pitch,
		originX, originY)
}

// Deswizzles a block-linear guest texture into a tightly packed linear
// buffer
func CopyGuestBlockLinearToLinear(guest *GuestTexture, blockLinear, linear []byte) {
	copyBlockLinear(BLOCK_LINEAR_TO_PITCH, guest.Dimensions,
		guest.Format.BlockWidth, guest.Format.BlockHeight, guest.Format.Bpb, 0,
		guest.TileConfig.BlockHeight, guest.TileConfig.BlockDepth,
		blockLinear, linear)
}

// Swizzles a tightly packed linear buffer into a block-linear guest
// texture
func CopyGuestLinearToBlockLinear(guest *GuestTexture, linear, blockLinear []byte) {
	copyBlockLinear(PITCH_TO_BLOCK_LINEAR, guest.Dimensions,
		guest.Format.BlockWidth, guest.Format.BlockHeight, guest.Format.Bpb, 0,
		guest.TileConfig.BlockHeight, guest.TileConfig.BlockDepth,
		blockLinear, linear)
}
