package loader

import (
	"github.com/Faultbox/objscene/internal/model"
	"github.com/Faultbox/objscene/internal/registry"
	"github.com/Faultbox/objscene/internal/scene"
	"github.com/Faultbox/objscene/internal/texture"
)

// Document is the result of a successful load. In ModeScene, Scene is
// the default artifact and Meshes, Materials and Images are reachable by
// label. In ModeMesh, Mesh is the only artifact.
type Document struct {
	Path      string
	Mode      Mode
	Scene     *scene.Scene
	Mesh      *model.Mesh
	Meshes    []*model.Mesh     // indexed by mesh handle
	Materials []*model.Material // indexed by material handle
	Images    []*texture.Image  // indexed by image handle

	reg *registry.Registry
}

// Default returns the default artifact: *scene.Scene or *model.Mesh.
func (d *Document) Default() any {
	if d.Mode == ModeMesh {
		return d.Mesh
	}
	return d.Scene
}

// Labels returns the labels of all sub-assets in registration order.
func (d *Document) Labels() []string {
	return d.reg.Labels()
}

// Handle returns the handle registered under label.
func (d *Document) Handle(label string) (registry.Handle, bool) {
	return d.reg.Lookup(label)
}

// Label returns the label of h.
func (d *Document) Label(h registry.Handle) string {
	return d.reg.Label(h)
}

// Labeled returns the sub-asset registered under label: a *model.Mesh,
// *model.Material or *texture.Image.
func (d *Document) Labeled(label string) (any, bool) {
	h, ok := d.reg.Lookup(label)
	if !ok {
		return nil, false
	}
	switch h.Kind() {
	case registry.KindMesh:
		return d.MeshOf(h), true
	case registry.KindMaterial:
		return d.MaterialOf(h), true
	case registry.KindImage:
		return d.ImageOf(h), true
	}
	return nil, false
}

// MeshOf returns the mesh for h, or nil.
func (d *Document) MeshOf(h registry.Handle) *model.Mesh {
	if h.Kind() != registry.KindMesh || h.Index() >= len(d.Meshes) {
		return nil
	}
	return d.Meshes[h.Index()]
}

// MaterialOf returns the material for h, or nil.
func (d *Document) MaterialOf(h registry.Handle) *model.Material {
	if h.Kind() != registry.KindMaterial || h.Index() >= len(d.Materials) {
		return nil
	}
	return d.Materials[h.Index()]
}

// ImageOf returns the image for h, or nil.
func (d *Document) ImageOf(h registry.Handle) *texture.Image {
	if h.Kind() != registry.KindImage || h.Index() >= len(d.Images) {
		return nil
	}
	return d.Images[h.Index()]
}

// MeshCount returns the number of meshes the document holds.
func (d *Document) MeshCount() int {
	if d.Mode == ModeMesh {
		if d.Mesh == nil {
			return 0
		}
		return 1
	}
	return len(d.Meshes)
}
