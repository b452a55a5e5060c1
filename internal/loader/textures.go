package loader

import (
	"context"
	"path"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/registry"
	"github.com/Faultbox/objscene/internal/texture"
)

// textureSlot is one registered texture. image is set by the single
// fill of the slot.
type textureSlot struct {
	handle registry.Handle
	label  string
	codec  texture.Codec
	srgb   bool
	image  *texture.Image
}

// textureLoader fetches and decodes the textures of one load. Each
// distinct normalized path is fetched and decoded at most once.
type textureLoader struct {
	fetcher   Fetcher
	dir       string
	reg       *registry.Registry
	supported texture.CompressedFormats
	log       *zap.Logger

	mu    sync.Mutex
	slots map[registry.Handle]*textureSlot
	order []*textureSlot
}

func newTextureLoader(fetcher Fetcher, dir string, reg *registry.Registry, supported texture.CompressedFormats, log *zap.Logger) *textureLoader {
	return &textureLoader{
		fetcher:   fetcher,
		dir:       dir,
		reg:       reg,
		supported: supported,
		log:       log,
		slots:     make(map[registry.Handle]*textureSlot),
	}
}

// reserve registers ref and returns its slot. created reports whether the
// caller owns the slot and must fill it. A path already registered keeps
// the color space it was first requested with.
func (t *textureLoader) reserve(ref string, srgb bool) (*textureSlot, bool, error) {
	label := registry.TextureLabel(ref)
	codec, err := texture.CodecFromPath(label)
	if err != nil {
		return nil, false, &Error{Kind: ErrInvalidImageFile, Stage: StageResolvingMaterials, Path: ref, Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h, created, err := t.reg.Acquire(registry.KindImage, label)
	if err != nil {
		return nil, false, &Error{Kind: ErrInvalidImageFile, Stage: StageResolvingMaterials, Path: ref, Err: err}
	}
	if !created {
		slot := t.slots[h]
		if slot.srgb != srgb {
			t.log.Debug("texture reused with a different color space",
				zap.String("texture", label), zap.Bool("srgb", slot.srgb))
		}
		t.log.Debug("texture already registered", zap.String("texture", label), zap.Stringer("handle", h))
		return slot, false, nil
	}

	slot := &textureSlot{
		handle: h,
		label:  label,
		codec:  codec,
		srgb:   srgb,
	}
	t.slots[h] = slot
	t.order = append(t.order, slot)
	return slot, true, nil
}

// fill fetches and decodes the texture of a slot the caller created.
func (t *textureLoader) fill(ctx context.Context, slot *textureSlot) error {
	fetchPath := path.Join(t.dir, slot.label)
	data, err := t.fetcher.Fetch(ctx, fetchPath)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return &Error{Kind: ErrFetch, Stage: StageResolvingMaterials, Path: fetchPath, Err: err}
	}

	img, err := texture.Decode(data, slot.codec, texture.DecodeOptions{
		Supported: t.supported,
		SRGB:      slot.srgb,
	})
	if err != nil {
		return &Error{Kind: ErrImageDecode, Stage: StageResolvingMaterials, Path: fetchPath, Err: err}
	}

	t.log.Debug("texture decoded",
		zap.String("texture", slot.label),
		zap.Stringer("codec", slot.codec),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Bool("compressed", img.IsCompressed()))
	slot.image = img
	return nil
}

// images returns the decoded textures in handle order.
func (t *textureLoader) images() []*texture.Image {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*texture.Image, len(t.order))
	for i, slot := range t.order {
		out[i] = slot.image
	}
	return out
}
