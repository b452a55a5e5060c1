package loader

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"sync"
	"testing"
)

// memFetcher serves files from memory and counts fetches per path.
type memFetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	calls map[string]int
	hook  func(ctx context.Context, path string) error
}

func newMemFetcher(files map[string]string) *memFetcher {
	f := &memFetcher{
		files: make(map[string][]byte, len(files)),
		calls: make(map[string]int),
	}
	for name, content := range files {
		f.files[name] = []byte(content)
	}
	return f
}

func (f *memFetcher) put(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = data
}

func (f *memFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.calls[path]++
	data, ok := f.files[path]
	hook := f.hook
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hook != nil {
		if err := hook(ctx, path); err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return data, nil
}

func (f *memFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *memFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// hugeDDS is a DXT5 header declaring 0xFFFFFFFF x 0xFFFFFFFF with no blocks.
func hugeDDS() []byte {
	data := make([]byte, 128)
	copy(data, "DDS ")
	le := binary.LittleEndian
	le.PutUint32(data[4:], 124)
	le.PutUint32(data[12:], 0xFFFFFFFF)
	le.PutUint32(data[16:], 0xFFFFFFFF)
	le.PutUint32(data[76:], 32)
	le.PutUint32(data[80:], 0x4)
	copy(data[84:], "DXT5")
	return data
}

const cubeOBJ = `# unit cube
mtllib cube.mtl
o Cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl wood
f 1/1 4/4 3/3 2/2
f 5/1 6/2 7/3 8/4
f 1/1 2/2 6/3 5/4
f 2/1 3/2 7/3 6/4
f 3/1 4/2 8/3 7/4
f 4/1 1/2 5/3 8/4
`

const cubeMTL = `newmtl wood
Ka 0.1 0.1 0.1
Kd 0.8 0.6 0.4
Ns 10
map_Kd textures/wood.png
`
