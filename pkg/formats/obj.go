// OBJ (Wavefront geometry) format parser.
package formats

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// RawModel is one decoded OBJ model with single-index vertex attributes.
// Positions and Normals hold xyz triples, TexCoords holds uv pairs, and
// every entry of Indices addresses all three arrays at once.
type RawModel struct {
	Name        string
	Positions   []float32
	Normals     []float32 // empty when no face references a normal
	TexCoords   []float32 // empty when no face references a texcoord
	Indices     []uint32  // triangle list
	MaterialID  int
	HasMaterial bool
}

// VertexCount returns the number of merged vertices.
func (m *RawModel) VertexCount() int {
	return len(m.Positions) / 3
}

// OBJ holds the result of decoding an OBJ document.
type OBJ struct {
	Models    []RawModel
	Materials []RawMaterial
	// MaterialsErr is set when a material library failed to load or parse.
	// Geometry is still decoded in that case.
	MaterialsErr error
	Libraries    []string // mtllib names in document order
}

// LibraryLoader reads a material library referenced by an mtllib directive.
// The name is exactly as written in the document.
type LibraryLoader func(ctx context.Context, name string) ([]byte, error)

// DecodeOptions controls OBJ decoding.
type DecodeOptions struct {
	// LoadLibrary is called for every mtllib directive. When nil,
	// material libraries are ignored and no model gets a material.
	LoadLibrary LibraryLoader
}

// DecodeOBJ parses OBJ data. Polygonal faces are triangulated, lines and
// points are ignored, and vertices with identical position/texcoord/normal
// references are merged within each model.
func DecodeOBJ(ctx context.Context, data []byte, opts DecodeOptions) (*OBJ, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := &objDecoder{ctx: ctx, opts: opts}
	if err := d.parse(data); err != nil {
		return nil, err
	}
	d.flush()
	d.bindMaterials()

	return &OBJ{
		Models:       d.models,
		Materials:    d.materials,
		MaterialsErr: d.matErr,
		Libraries:    d.libs,
	}, nil
}

type vertexKey struct {
	v, vt, vn int // -1 when absent
}

// modelBuilder accumulates faces for the model being parsed.
type modelBuilder struct {
	name         string
	material     string
	verts        map[vertexKey]uint32
	keys         []vertexKey
	indices      []uint32
	hasNormals   bool
	hasTexCoords bool
}

func newModelBuilder(name, material string) *modelBuilder {
	return &modelBuilder{
		name:     name,
		material: material,
		verts:    make(map[vertexKey]uint32),
	}
}

func (b *modelBuilder) index(k vertexKey) uint32 {
	if idx, ok := b.verts[k]; ok {
		return idx
	}
	idx := uint32(len(b.keys))
	b.verts[k] = idx
	b.keys = append(b.keys, k)
	if k.vn >= 0 {
		b.hasNormals = true
	}
	if k.vt >= 0 {
		b.hasTexCoords = true
	}
	return idx
}

type objDecoder struct {
	ctx  context.Context
	opts DecodeOptions
	line int

	positions [][3]float32
	normals   [][3]float32
	texcoords [][2]float32

	cur      *modelBuilder
	builders []*modelBuilder
	models   []RawModel
	material string // active usemtl name

	materials []RawMaterial
	matErr    error
	libs      []string
}

func (d *objDecoder) parse(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)

	var pending string
	for scanner.Scan() {
		d.line++
		if d.line%1024 == 0 {
			if err := d.ctx.Err(); err != nil {
				return err
			}
		}

		text := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.HasSuffix(text, "\\") {
			pending += strings.TrimSuffix(text, "\\") + " "
			continue
		}
		text = pending + text
		pending = ""

		if err := d.parseLine(text); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return d.errorf("%v", err)
	}
	if pending != "" {
		return d.parseLine(pending)
	}
	return nil
}

func (d *objDecoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch fields[0] {
	case "v":
		vec, err := d.parseFloats(fields[1:], 3, 3)
		if err != nil {
			return err
		}
		d.positions = append(d.positions, [3]float32{vec[0], vec[1], vec[2]})
	case "vn":
		vec, err := d.parseFloats(fields[1:], 3, 3)
		if err != nil {
			return err
		}
		d.normals = append(d.normals, [3]float32{vec[0], vec[1], vec[2]})
	case "vt":
		// vt u [v [w]]; a missing v reads as 0
		vec, err := d.parseFloats(fields[1:], 1, 2)
		if err != nil {
			return err
		}
		uv := [2]float32{vec[0], 0}
		if len(vec) > 1 {
			uv[1] = vec[1]
		}
		d.texcoords = append(d.texcoords, uv)
	case "f":
		return d.parseFace(fields[1:])
	case "o", "g":
		d.flush()
		name := strings.Join(fields[1:], " ")
		if name == "" {
			name = "unnamed_object"
		}
		d.cur = newModelBuilder(name, d.material)
	case "usemtl":
		if len(fields) < 2 {
			return d.errorf("%w: usemtl", ErrEmptyDirective)
		}
		d.material = strings.Join(fields[1:], " ")
		if d.cur != nil && len(d.cur.indices) > 0 {
			name := d.cur.name
			d.flush()
			d.cur = newModelBuilder(name, d.material)
		} else if d.cur != nil {
			d.cur.material = d.material
		}
	case "mtllib":
		// the file name may contain spaces
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "mtllib"))
		if name == "" {
			return d.errorf("%w: mtllib", ErrEmptyDirective)
		}
		return d.loadLibrary(name)
	default:
		// l, p, s, and unsupported statements
	}
	return nil
}

func (d *objDecoder) parseFloats(fields []string, min, max int) ([]float32, error) {
	if len(fields) < min {
		return nil, d.errorf("%w: want %d, got %d", ErrMissingFields, min, len(fields))
	}
	if len(fields) > max {
		fields = fields[:max]
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		val, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, d.errorf("%w %q", ErrInvalidNumber, f)
		}
		out[i] = float32(val)
	}
	return out, nil
}

// parseFace parses f v1[/vt1][/vn1] v2[/vt2][/vn2] v3[/vt3][/vn3] ...
// and emits a triangle fan.
func (d *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return d.errorf("%w: got %d", ErrFaceTooSmall, len(fields))
	}
	if d.cur == nil {
		d.cur = newModelBuilder("unnamed_object", d.material)
	}

	corners := make([]uint32, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")
		key := vertexKey{v: -1, vt: -1, vn: -1}

		v, err := d.resolveIndex(parts[0], len(d.positions))
		if err != nil {
			return err
		}
		key.v = v

		if len(parts) > 1 && parts[1] != "" {
			if key.vt, err = d.resolveIndex(parts[1], len(d.texcoords)); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if key.vn, err = d.resolveIndex(parts[2], len(d.normals)); err != nil {
				return err
			}
		}
		corners[i] = d.cur.index(key)
	}

	for i := 2; i < len(corners); i++ {
		d.cur.indices = append(d.cur.indices, corners[0], corners[i-1], corners[i])
	}
	return nil
}

// resolveIndex converts a 1-based or negative relative OBJ index to 0-based.
func (d *objDecoder) resolveIndex(s string, count int) (int, error) {
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, d.errorf("%w %q", ErrInvalidNumber, s)
	}
	var idx int
	switch {
	case val > 0:
		idx = val - 1
	case val < 0:
		idx = count + val
	default:
		return 0, d.errorf("%w", ErrZeroIndex)
	}
	if idx < 0 || idx >= count {
		return 0, d.errorf("%w: %d of %d", ErrIndexRange, val, count)
	}
	return idx, nil
}

func (d *objDecoder) loadLibrary(name string) error {
	d.libs = append(d.libs, name)
	if d.opts.LoadLibrary == nil || d.matErr != nil {
		return nil
	}

	data, err := d.opts.LoadLibrary(d.ctx, name)
	if err != nil {
		if ctxErr := d.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		d.matErr = &LibraryError{Name: name, Err: err}
		return nil
	}

	mats, err := DecodeMTL(data)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.File = name
		}
		d.matErr = err
		return nil
	}
	d.materials = append(d.materials, mats...)
	return nil
}

// flush finishes the current model. Models without faces are dropped.
func (d *objDecoder) flush() {
	b := d.cur
	d.cur = nil
	if b == nil || len(b.indices) == 0 {
		return
	}

	m := RawModel{
		Name:      b.name,
		Positions: make([]float32, 0, len(b.keys)*3),
		Indices:   b.indices,
	}
	if b.hasNormals {
		m.Normals = make([]float32, 0, len(b.keys)*3)
	}
	if b.hasTexCoords {
		m.TexCoords = make([]float32, 0, len(b.keys)*2)
	}

	for _, k := range b.keys {
		p := d.positions[k.v]
		m.Positions = append(m.Positions, p[0], p[1], p[2])
		if b.hasNormals {
			var n [3]float32
			if k.vn >= 0 {
				n = d.normals[k.vn]
			}
			m.Normals = append(m.Normals, n[0], n[1], n[2])
		}
		if b.hasTexCoords {
			var t [2]float32
			if k.vt >= 0 {
				t = d.texcoords[k.vt]
			}
			m.TexCoords = append(m.TexCoords, t[0], t[1])
		}
	}

	d.models = append(d.models, m)
	d.builders = append(d.builders, b)
}

// bindMaterials resolves usemtl names against the loaded libraries.
// The first definition of a name wins.
func (d *objDecoder) bindMaterials() {
	if d.matErr != nil || len(d.materials) == 0 {
		return
	}
	byName := make(map[string]int, len(d.materials))
	for i, mat := range d.materials {
		if _, ok := byName[mat.Name]; !ok {
			byName[mat.Name] = i
		}
	}
	for i, b := range d.builders {
		if idx, ok := byName[b.material]; ok && b.material != "" {
			d.models[i].MaterialID = idx
			d.models[i].HasMaterial = true
		}
	}
}

func (d *objDecoder) errorf(format string, args ...any) error {
	return &SyntaxError{File: SourceOBJ, Line: d.line, Err: fmt.Errorf(format, args...)}
}
