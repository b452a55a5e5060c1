// Package texture decodes texture files referenced by materials into
// raster images or block-compressed payloads.
package texture

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Codec identifies an image encoding.
type Codec int

const (
	CodecNone Codec = iota
	CodecPNG
	CodecJPEG
	CodecGIF
	CodecBMP
	CodecTIFF
	CodecWebP
	CodecTGA
	CodecDDS
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecPNG:
		return "PNG"
	case CodecJPEG:
		return "JPEG"
	case CodecGIF:
		return "GIF"
	case CodecBMP:
		return "BMP"
	case CodecTIFF:
		return "TIFF"
	case CodecWebP:
		return "WebP"
	case CodecTGA:
		return "TGA"
	case CodecDDS:
		return "DDS"
	default:
		return "None"
	}
}

// Extension errors.
var (
	ErrNoExtension      = errors.New("path has no file extension")
	ErrUnknownExtension = errors.New("unrecognized image extension")
)

// extensionCodecs is matched case-sensitively.
var extensionCodecs = map[string]Codec{
	"png":  CodecPNG,
	"jpg":  CodecJPEG,
	"jpeg": CodecJPEG,
	"gif":  CodecGIF,
	"bmp":  CodecBMP,
	"tif":  CodecTIFF,
	"tiff": CodecTIFF,
	"webp": CodecWebP,
	"tga":  CodecTGA,
	"dds":  CodecDDS,
}

// CodecFromExtension returns the codec for a file extension, with or
// without the leading dot.
func CodecFromExtension(ext string) (Codec, error) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return CodecNone, ErrNoExtension
	}
	c, ok := extensionCodecs[ext]
	if !ok {
		return CodecNone, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
	}
	return c, nil
}

// CodecFromPath returns the codec for a slash-separated file path.
func CodecFromPath(p string) (Codec, error) {
	return CodecFromExtension(path.Ext(p))
}

// CompressedFormats is the set of GPU block-compression families a
// consumer can upload directly.
type CompressedFormats uint8

const (
	FormatBC CompressedFormats = 1 << iota
	FormatETC2
	FormatASTC

	NoCompressedFormats  CompressedFormats = 0
	AllCompressedFormats                   = FormatBC | FormatETC2 | FormatASTC
)

var formatNames = []struct {
	flag CompressedFormats
	name string
}{
	{FormatBC, "bc"},
	{FormatETC2, "etc2"},
	{FormatASTC, "astc"},
}

// Has reports whether all formats in other are supported.
func (f CompressedFormats) Has(other CompressedFormats) bool {
	return f&other == other
}

// String returns a comma-separated list of format names.
func (f CompressedFormats) String() string {
	var names []string
	for _, fn := range formatNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseCompressedFormats parses format names: bc, etc2, astc, all, none.
func ParseCompressedFormats(names []string) (CompressedFormats, error) {
	var f CompressedFormats
	for _, n := range names {
		switch n = strings.ToLower(strings.TrimSpace(n)); n {
		case "", "none":
		case "all":
			f |= AllCompressedFormats
		default:
			found := false
			for _, fn := range formatNames {
				if fn.name == n {
					f |= fn.flag
					found = true
				}
			}
			if !found {
				return 0, fmt.Errorf("unknown compressed texture format %q", n)
			}
		}
	}
	return f, nil
}
