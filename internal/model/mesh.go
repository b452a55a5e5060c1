package model

import (
	"fmt"

	"github.com/Faultbox/objscene/pkg/formats"
	"github.com/Faultbox/objscene/pkg/math"
)

// BuildMesh converts a decoded model into a mesh. Texture v coordinates
// are flipped to a top-left origin. When the model has no normals, its
// vertices are unshared and each triangle gets its flat plane normal.
// Models with 2^32 or more vertices are not supported.
func BuildMesh(raw *formats.RawModel) *Mesh {
	mesh := &Mesh{
		Topology:  TriangleList,
		Positions: unpackVec3(raw.Positions),
		Normals:   unpackVec3(raw.Normals),
		UVs:       unpackUV(raw.TexCoords),
		Indices:   append([]uint32(nil), raw.Indices...),
	}

	if mesh.Normals == nil {
		mesh.duplicateVertices()
		mesh.computeFlatNormals()
	}
	mesh.Bounds = computeBounds(mesh.Positions)
	return mesh
}

// BuildMergedMesh concatenates all models into one mesh. Normals are kept
// only if every model has them; otherwise the whole mesh is flat shaded.
// Models without texture coordinates get zero uvs when others have them.
func BuildMergedMesh(raws []formats.RawModel) *Mesh {
	allNormals := len(raws) > 0
	anyUVs := false
	for i := range raws {
		if len(raws[i].Normals) == 0 {
			allNormals = false
		}
		if len(raws[i].TexCoords) > 0 {
			anyUVs = true
		}
	}

	mesh := &Mesh{Topology: TriangleList}
	for i := range raws {
		raw := &raws[i]
		offset := uint32(len(mesh.Positions))

		mesh.Positions = append(mesh.Positions, unpackVec3(raw.Positions)...)
		if allNormals {
			mesh.Normals = append(mesh.Normals, unpackVec3(raw.Normals)...)
		}
		if anyUVs {
			uvs := unpackUV(raw.TexCoords)
			if uvs == nil {
				uvs = make([][2]float32, raw.VertexCount())
			}
			mesh.UVs = append(mesh.UVs, uvs...)
		}
		for _, idx := range raw.Indices {
			mesh.Indices = append(mesh.Indices, idx+offset)
		}
	}

	if !allNormals {
		mesh.duplicateVertices()
		mesh.computeFlatNormals()
	}
	mesh.Bounds = computeBounds(mesh.Positions)
	return mesh
}

// Validate checks buffer lengths and index ranges.
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	if m.Normals != nil && len(m.Normals) != n {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(m.Normals), n)
	}
	if m.UVs != nil && len(m.UVs) != n {
		return fmt.Errorf("uv count %d does not match vertex count %d", len(m.UVs), n)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d at %d out of range (%d vertices)", idx, i, n)
		}
	}
	return nil
}

// duplicateVertices gives every triangle corner its own vertex and
// rewrites the index buffer as 0..len-1.
func (m *Mesh) duplicateVertices() {
	positions := make([][3]float32, len(m.Indices))
	var uvs [][2]float32
	if m.UVs != nil {
		uvs = make([][2]float32, len(m.Indices))
	}
	indices := make([]uint32, len(m.Indices))

	for i, idx := range m.Indices {
		positions[i] = m.Positions[idx]
		if uvs != nil {
			uvs[i] = m.UVs[idx]
		}
		indices[i] = uint32(i)
	}

	m.Positions = positions
	m.UVs = uvs
	m.Normals = nil
	m.Indices = indices
}

// computeFlatNormals assigns each triangle's plane normal to its corners.
// The mesh must not share vertices between triangles.
func (m *Mesh) computeFlatNormals() {
	m.Normals = make([][3]float32, len(m.Positions))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		n := math.TriangleNormal(
			math.V3(m.Positions[i0]),
			math.V3(m.Positions[i1]),
			math.V3(m.Positions[i2]),
		).Array()
		m.Normals[i0] = n
		m.Normals[i1] = n
		m.Normals[i2] = n
	}
}

func unpackVec3(flat []float32) [][3]float32 {
	if len(flat) == 0 {
		return nil
	}
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		out[i] = [3]float32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out
}

// unpackUV unpacks uv pairs, flipping v.
func unpackUV(flat []float32) [][2]float32 {
	if len(flat) == 0 {
		return nil
	}
	out := make([][2]float32, len(flat)/2)
	for i := range out {
		out[i] = [2]float32{flat[i*2], 1 - flat[i*2+1]}
	}
	return out
}

func computeBounds(positions [][3]float32) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	lo := math.V3(positions[0])
	hi := lo
	for _, p := range positions[1:] {
		v := math.V3(p)
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return Bounds{Min: lo.Array(), Max: hi.Array()}
}
