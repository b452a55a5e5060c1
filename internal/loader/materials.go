package loader

import (
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/objscene/internal/model"
	"github.com/Faultbox/objscene/internal/registry"
	"github.com/Faultbox/objscene/pkg/formats"
)

// resolvedMaterials holds materials by position in the material list.
type resolvedMaterials struct {
	handles []registry.Handle
	assets  []*model.Material
}

// resolveMaterials registers one material per raw material, in file
// order, and loads the textures they reference. Textures are reserved
// sequentially so handle numbering follows file order; their fetches run
// concurrently and the first failure cancels the rest.
func (r *run) resolveMaterials(raws []formats.RawMaterial) (*resolvedMaterials, error) {
	out := &resolvedMaterials{
		handles: make([]registry.Handle, len(raws)),
		assets:  make([]*model.Material, len(raws)),
	}

	var pending []*textureSlot
	request := func(ref string, srgb bool) (registry.Handle, error) {
		if ref == "" {
			return registry.Handle{}, nil
		}
		slot, created, err := r.textures.reserve(ref, srgb)
		if err != nil {
			return registry.Handle{}, err
		}
		if created {
			pending = append(pending, slot)
		}
		return slot.handle, nil
	}

	for i, raw := range raws {
		label := registry.MaterialLabel(i)
		h, _, err := r.reg.Acquire(registry.KindMaterial, label)
		if err != nil {
			return nil, r.fail(ErrParse, label, err)
		}

		mat := &model.Material{
			Name:      raw.Name,
			BaseColor: [4]float32{raw.Diffuse[0], raw.Diffuse[1], raw.Diffuse[2], 1},
		}
		if mat.DiffuseTexture, err = request(raw.DiffuseTexture, r.loader.opts.SRGBDiffuse); err != nil {
			return nil, err
		}
		if mat.NormalTexture, err = request(raw.NormalTexture, false); err != nil {
			return nil, err
		}

		out.handles[i] = h
		out.assets[i] = mat
	}

	g, ctx := errgroup.WithContext(r.ctx)
	if n := r.loader.opts.ParallelFetches; n > 0 {
		g.SetLimit(n)
	}
	for _, slot := range pending {
		slot := slot
		g.Go(func() error {
			return r.textures.fill(ctx, slot)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.log.Debug("materials resolved",
		zap.Int("materials", len(raws)),
		zap.Int("textures", len(pending)))
	return out, nil
}
