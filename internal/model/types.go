// Package model builds renderer-agnostic meshes from decoded OBJ models
// and defines the material asset type.
package model

import "github.com/Faultbox/objscene/internal/registry"

// Topology is the primitive layout of a mesh index buffer.
type Topology int

const (
	TriangleList Topology = iota
)

// String returns a human-readable topology name.
func (t Topology) String() string {
	if t == TriangleList {
		return "TriangleList"
	}
	return "Unknown"
}

// Mesh holds per-vertex attribute buffers and a 32-bit index buffer.
// Every present buffer has exactly VertexCount entries.
type Mesh struct {
	Topology  Topology
	Positions [][3]float32
	Normals   [][3]float32 // nil when absent
	UVs       [][2]float32 // nil when absent
	Indices   []uint32
	Bounds    Bounds
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Material is a resolved material: a base color plus optional textures.
type Material struct {
	Name           string
	BaseColor      [4]float32
	DiffuseTexture registry.Handle // invalid when absent
	NormalTexture  registry.Handle // invalid when absent
}
