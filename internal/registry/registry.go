// Package registry assigns labels to the assets produced by one load and
// hands out typed handles for them.
package registry

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
)

// Kind identifies the asset type a handle refers to.
type Kind uint8

const (
	KindMesh Kind = iota + 1
	KindMaterial
	KindImage
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "Mesh"
	case KindMaterial:
		return "Material"
	case KindImage:
		return "Image"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Handle is a typed reference to a registered asset.
// The zero Handle is invalid and means "absent".
type Handle struct {
	kind  Kind
	index uint32
}

// Valid reports whether h refers to an asset.
func (h Handle) Valid() bool {
	return h.kind != 0
}

// Kind returns the asset kind.
func (h Handle) Kind() Kind {
	return h.kind
}

// Index returns the position of the asset among assets of its kind.
func (h Handle) Index() int {
	return int(h.index)
}

func (h Handle) String() string {
	if !h.Valid() {
		return "Handle(none)"
	}
	return fmt.Sprintf("%s#%d", h.kind, h.index)
}

// Registry maps labels to handles. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	handles map[string]Handle
	labels  map[Kind][]string
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		handles: make(map[string]Handle),
		labels:  make(map[Kind][]string),
	}
}

// Acquire returns the handle registered under label, registering a new
// handle of the given kind when the label is unknown. created reports
// whether this call registered it. Lookup and insert are atomic.
func (r *Registry) Acquire(kind Kind, label string) (h Handle, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[label]; ok {
		if h.kind != kind {
			return Handle{}, false, fmt.Errorf("label %q already registered as %s, not %s", label, h.kind, kind)
		}
		return h, false, nil
	}

	h = Handle{kind: kind, index: uint32(len(r.labels[kind]))}
	r.handles[label] = h
	r.labels[kind] = append(r.labels[kind], label)
	r.order = append(r.order, label)
	return h, true, nil
}

// Lookup returns the handle registered under label.
func (r *Registry) Lookup(label string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[label]
	return h, ok
}

// Label returns the label of h, or "" if h is not registered here.
func (r *Registry) Label(h Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	labels := r.labels[h.kind]
	if !h.Valid() || int(h.index) >= len(labels) {
		return ""
	}
	return labels[h.index]
}

// Labels returns all labels in registration order.
func (r *Registry) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of assets of the given kind.
func (r *Registry) Len(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.labels[kind])
}

// MeshLabel returns the label of the i-th mesh.
func MeshLabel(i int) string {
	return "Mesh" + strconv.Itoa(i)
}

// MaterialLabel returns the label of the i-th material.
// Materials are labeled by position since names may repeat.
func MaterialLabel(i int) string {
	return "Material" + strconv.Itoa(i)
}

// TextureLabel returns the label of a texture: its source-relative path
// with forward slashes and redundant elements removed.
func TextureLabel(ref string) string {
	return NormalizePath(ref)
}

// NormalizePath cleans a document-relative reference.
func NormalizePath(ref string) string {
	ref = strings.ReplaceAll(ref, "\\", "/")
	if ref == "" {
		return ""
	}
	return path.Clean(ref)
}
