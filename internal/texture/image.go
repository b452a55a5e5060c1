package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Decode errors.
var (
	ErrCodecMismatch = errors.New("image content does not match its extension")
	ErrEmptyImage    = errors.New("image data is empty")
)

// Image is a decoded texture. Exactly one of RGBA and Compressed is set.
type Image struct {
	Codec      Codec
	Width      int
	Height     int
	SRGB       bool // color data should be sampled as sRGB
	RGBA       *image.RGBA
	Compressed *BlockImage
}

// IsCompressed reports whether the image kept its block-compressed payload.
func (img *Image) IsCompressed() bool {
	return img.Compressed != nil
}

// DecodeOptions controls texture decoding.
type DecodeOptions struct {
	// Supported lists block-compression families the consumer uploads
	// directly. It picks the decode path only; the pixels are the same.
	Supported CompressedFormats
	SRGB      bool
}

// Decode decodes data with the given codec.
func Decode(data []byte, codec Codec, opts DecodeOptions) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if err := checkContent(data, codec); err != nil {
		return nil, err
	}

	out := &Image{Codec: codec, SRGB: opts.SRGB}

	if codec == CodecDDS {
		block, err := decodeDDSHeader(data)
		if err != nil {
			return nil, err
		}
		out.Width, out.Height = block.Width, block.Height
		if opts.Supported.Has(FormatBC) {
			out.Compressed = block
			return out, nil
		}
		out.RGBA, err = block.Decompress()
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	rgba, err := decodeRaster(data, codec)
	if err != nil {
		return nil, err
	}
	out.RGBA = rgba
	out.Width = rgba.Bounds().Dx()
	out.Height = rgba.Bounds().Dy()
	return out, nil
}

// checkContent sniffs data and rejects content recognized as a different type.
func checkContent(data []byte, codec Codec) error {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return nil
	}
	if sniffed, ok := extensionCodecs[kind.Extension]; ok && sniffed == codec {
		return nil
	}
	return fmt.Errorf("%w: declared %s, content is %s", ErrCodecMismatch, codec, kind.MIME.Value)
}

func decodeRaster(data []byte, codec Codec) (*image.RGBA, error) {
	r := bytes.NewReader(data)

	var (
		img image.Image
		err error
	)
	switch codec {
	case CodecPNG:
		img, err = png.Decode(r)
	case CodecJPEG:
		img, err = jpeg.Decode(r)
	case CodecGIF:
		img, err = gif.Decode(r)
	case CodecBMP:
		img, err = bmp.Decode(r)
	case CodecTIFF:
		img, err = tiff.Decode(r)
	case CodecWebP:
		img, err = webp.Decode(r)
	case CodecTGA:
		return DecodeTGA(data)
	default:
		return nil, fmt.Errorf("no raster decoder for %s", codec)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", codec, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any image.Image to *image.RGBA with a zero origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			rgba.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}

	return rgba
}
