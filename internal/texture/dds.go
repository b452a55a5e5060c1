package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
)

// DDS format errors.
var (
	ErrInvalidDDSMagic      = errors.New("invalid DDS magic: expected 'DDS '")
	ErrTruncatedDDSData     = errors.New("truncated DDS data")
	ErrUnsupportedDDSFormat = errors.New("unsupported DDS pixel format")
	ErrTooLarge             = errors.New("texture dimensions too large")
)

// MaxDimension bounds the width and height of any decoded texture.
const MaxDimension = 16384

const (
	ddsHeaderSize  = 128 // magic + 124 byte header
	ddsFourCCFlag  = 0x4
	ddsPixelFormat = 76
)

// BlockFormat is a block-compression encoding.
type BlockFormat int

const (
	BC1 BlockFormat = iota + 1 // DXT1
	BC2                        // DXT3
	BC3                        // DXT5
)

// String returns the block format name.
func (f BlockFormat) String() string {
	switch f {
	case BC1:
		return "BC1"
	case BC2:
		return "BC2"
	case BC3:
		return "BC3"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// BlockSize returns the byte size of one 4x4 block.
func (f BlockFormat) BlockSize() int {
	if f == BC1 {
		return 8
	}
	return 16
}

// BlockImage is the top mip level of a block-compressed texture.
type BlockImage struct {
	Format BlockFormat
	Width  int
	Height int
	Data   []byte
}

func blocksAcross(n int) int {
	return max(1, (n+3)/4)
}

// decodeDDSHeader parses a DDS header and returns the top mip level.
func decodeDDSHeader(data []byte) (*BlockImage, error) {
	if len(data) < ddsHeaderSize {
		return nil, ErrTruncatedDDSData
	}
	if string(data[:4]) != "DDS " {
		return nil, ErrInvalidDDSMagic
	}

	le := binary.LittleEndian
	height := int(le.Uint32(data[12:]))
	width := int(le.Uint32(data[16:]))
	pfFlags := le.Uint32(data[ddsPixelFormat+4:])
	fourCC := string(data[ddsPixelFormat+8 : ddsPixelFormat+12])

	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: zero size", ErrUnsupportedDDSFormat)
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, width, height)
	}
	if pfFlags&ddsFourCCFlag == 0 {
		return nil, fmt.Errorf("%w: uncompressed", ErrUnsupportedDDSFormat)
	}

	var format BlockFormat
	switch fourCC {
	case "DXT1":
		format = BC1
	case "DXT3":
		format = BC2
	case "DXT5":
		format = BC3
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDDSFormat, fourCC)
	}

	size := blocksAcross(width) * blocksAcross(height) * format.BlockSize()
	if len(data)-ddsHeaderSize < size {
		return nil, ErrTruncatedDDSData
	}

	return &BlockImage{
		Format: format,
		Width:  width,
		Height: height,
		Data:   data[ddsHeaderSize : ddsHeaderSize+size],
	}, nil
}

// Decompress decodes the blocks to RGBA pixels.
func (b *BlockImage) Decompress() (*image.RGBA, error) {
	if b.Width <= 0 || b.Height <= 0 || b.Width > MaxDimension || b.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, b.Width, b.Height)
	}
	bw, bh := blocksAcross(b.Width), blocksAcross(b.Height)
	bs := b.Format.BlockSize()
	if len(b.Data) < bw*bh*bs {
		return nil, ErrTruncatedDDSData
	}

	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	var block [16]color.RGBA

	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			src := b.Data[(by*bw+bx)*bs:]
			switch b.Format {
			case BC1:
				decodeColorBlock(src[:8], true, &block)
			case BC2:
				decodeColorBlock(src[8:16], false, &block)
				decodeExplicitAlpha(src[:8], &block)
			case BC3:
				decodeColorBlock(src[8:16], false, &block)
				decodeInterpolatedAlpha(src[:8], &block)
			}

			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					x, y := bx*4+px, by*4+py
					if x < b.Width && y < b.Height {
						img.SetRGBA(x, y, block[py*4+px])
					}
				}
			}
		}
	}
	return img, nil
}

func expand565(c uint16) color.RGBA {
	r := uint8(c>>11) & 0x1F
	g := uint8(c>>5) & 0x3F
	b := uint8(c) & 0x1F
	return color.RGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 255}
}

func lerp(a, b uint8, num, den int) uint8 {
	return uint8((int(a)*(den-num) + int(b)*num) / den)
}

// decodeColorBlock decodes an 8-byte BC1 color block. BC2/BC3 color
// blocks always use four-color mode.
func decodeColorBlock(src []byte, bc1 bool, out *[16]color.RGBA) {
	c0 := binary.LittleEndian.Uint16(src[0:])
	c1 := binary.LittleEndian.Uint16(src[2:])
	p0, p1 := expand565(c0), expand565(c1)

	var palette [4]color.RGBA
	palette[0], palette[1] = p0, p1
	if c0 > c1 || !bc1 {
		palette[2] = color.RGBA{lerp(p0.R, p1.R, 1, 3), lerp(p0.G, p1.G, 1, 3), lerp(p0.B, p1.B, 1, 3), 255}
		palette[3] = color.RGBA{lerp(p0.R, p1.R, 2, 3), lerp(p0.G, p1.G, 2, 3), lerp(p0.B, p1.B, 2, 3), 255}
	} else {
		palette[2] = color.RGBA{lerp(p0.R, p1.R, 1, 2), lerp(p0.G, p1.G, 1, 2), lerp(p0.B, p1.B, 1, 2), 255}
		palette[3] = color.RGBA{}
	}

	bits := binary.LittleEndian.Uint32(src[4:])
	for i := 0; i < 16; i++ {
		out[i] = palette[(bits>>(2*i))&3]
	}
}

// decodeExplicitAlpha applies BC2 4-bit alpha.
func decodeExplicitAlpha(src []byte, out *[16]color.RGBA) {
	bits := binary.LittleEndian.Uint64(src)
	for i := 0; i < 16; i++ {
		out[i].A = uint8((bits>>(4*i))&0xF) * 17
	}
}

// decodeInterpolatedAlpha applies BC3 interpolated alpha.
func decodeInterpolatedAlpha(src []byte, out *[16]color.RGBA) {
	a0, a1 := src[0], src[1]

	var palette [8]uint8
	palette[0], palette[1] = a0, a1
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			palette[i+1] = lerp(a0, a1, i, 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			palette[i+1] = lerp(a0, a1, i, 5)
		}
		palette[6] = 0
		palette[7] = 255
	}

	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(src[2+i]) << (8 * i)
	}
	for i := 0; i < 16; i++ {
		out[i].A = palette[(bits>>(3*i))&7]
	}
}
