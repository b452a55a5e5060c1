package loader

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/model"
	"github.com/Faultbox/objscene/internal/registry"
	"github.com/Faultbox/objscene/internal/scene"
	"github.com/Faultbox/objscene/pkg/encoding"
	"github.com/Faultbox/objscene/pkg/formats"
)

// Stage is a state of the load pipeline. A load moves forward through
// Decoding, ResolvingMaterials, BuildingMeshes and AssemblingScene to
// Done, or jumps to Failed from any of them.
type Stage int

const (
	StageDecoding Stage = iota
	StageResolvingMaterials
	StageBuildingMeshes
	StageAssemblingScene
	StageDone
	StageFailed
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageDecoding:
		return "decoding"
	case StageResolvingMaterials:
		return "resolving materials"
	case StageBuildingMeshes:
		return "building meshes"
	case StageAssemblingScene:
		return "assembling scene"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// run holds the state of one load. Nothing in it is shared between loads.
type run struct {
	ctx      context.Context
	loader   *Loader
	path     string
	dir      string
	stage    Stage
	reg      *registry.Registry
	textures *textureLoader
	log      *zap.Logger
	started  time.Time
}

func (l *Loader) newRun(ctx context.Context, docPath string) *run {
	docPath = registry.NormalizePath(docPath)
	log := l.log.With(zap.String("doc", docPath))
	reg := registry.New()
	dir := path.Dir(docPath)

	return &run{
		ctx:      ctx,
		loader:   l,
		path:     docPath,
		dir:      dir,
		reg:      reg,
		textures: newTextureLoader(l.fetcher, dir, reg, l.opts.CompressedFormats, log),
		log:      log,
		started:  time.Now(),
	}
}

func (r *run) enter(s Stage) {
	r.stage = s
	r.log.Debug("stage", zap.Stringer("stage", s))
}

// fail tags err with kind and the current stage. Errors that are already
// tagged keep their original kind, stage and path.
func (r *run) fail(kind error, failedPath string, err error) error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	return &Error{Kind: kind, Stage: r.stage, Path: failedPath, Err: err}
}

func (r *run) execute(data []byte) (*Document, error) {
	r.enter(StageDecoding)

	text, err := encoding.Transcode(data, r.loader.opts.Encoding)
	if err != nil {
		return nil, r.fail(ErrParse, r.path, err)
	}

	var opts formats.DecodeOptions
	if r.loader.opts.Mode == ModeScene {
		opts.LoadLibrary = r.loadLibrary
	}
	obj, err := formats.DecodeOBJ(r.ctx, text, opts)
	if err != nil {
		return nil, r.fail(classify(err), r.path, err)
	}

	if r.loader.opts.Mode == ModeMesh {
		return r.buildMergedDocument(obj), nil
	}

	if obj.MaterialsErr != nil {
		failed := r.path
		var lib *formats.LibraryError
		if errors.As(obj.MaterialsErr, &lib) {
			failed = r.libraryPath(lib.Name)
		}
		return nil, r.fail(classify(obj.MaterialsErr), failed, obj.MaterialsErr)
	}

	r.enter(StageResolvingMaterials)
	materials, err := r.resolveMaterials(obj.Materials)
	if err != nil {
		return nil, err
	}

	r.enter(StageBuildingMeshes)
	meshes, meshHandles, err := r.buildMeshes(obj.Models)
	if err != nil {
		return nil, err
	}

	r.enter(StageAssemblingScene)
	bindings := make([]scene.Binding, len(obj.Models))
	for i := range obj.Models {
		bindings[i] = scene.Binding{
			Name:        obj.Models[i].Name,
			Mesh:        meshHandles[i],
			MaterialID:  obj.Models[i].MaterialID,
			HasMaterial: obj.Models[i].HasMaterial,
		}
	}
	sc, unbound := scene.Assemble(baseName(r.path), bindings, materials.handles)
	for _, i := range unbound {
		r.log.Debug("material id out of range",
			zap.Int("model", i),
			zap.String("name", obj.Models[i].Name),
			zap.Int("material", obj.Models[i].MaterialID),
			zap.Int("materials", len(materials.handles)))
	}

	r.enter(StageDone)
	return &Document{
		Path:      r.path,
		Mode:      ModeScene,
		Scene:     sc,
		Meshes:    meshes,
		Materials: materials.assets,
		Images:    r.textures.images(),
		reg:       r.reg,
	}, nil
}

// loadLibrary fetches an mtllib file next to the document.
func (r *run) loadLibrary(ctx context.Context, name string) ([]byte, error) {
	p := r.libraryPath(name)
	r.log.Debug("fetching material library", zap.String("path", p))

	data, err := r.loader.fetcher.Fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	return encoding.Transcode(data, r.loader.opts.Encoding)
}

func (r *run) libraryPath(name string) string {
	return path.Join(r.dir, registry.NormalizePath(name))
}

func (r *run) buildMeshes(raws []formats.RawModel) ([]*model.Mesh, []registry.Handle, error) {
	meshes := make([]*model.Mesh, len(raws))
	handles := make([]registry.Handle, len(raws))
	for i := range raws {
		label := registry.MeshLabel(i)
		h, _, err := r.reg.Acquire(registry.KindMesh, label)
		if err != nil {
			return nil, nil, r.fail(ErrParse, label, err)
		}
		meshes[i] = model.BuildMesh(&raws[i])
		handles[i] = h
	}
	return meshes, handles, nil
}

// buildMergedDocument produces the reduced mode result: one mesh, no
// scene graph and no labeled sub-assets.
func (r *run) buildMergedDocument(obj *formats.OBJ) *Document {
	r.enter(StageBuildingMeshes)
	mesh := model.BuildMergedMesh(obj.Models)

	r.enter(StageDone)
	return &Document{
		Path: r.path,
		Mode: ModeMesh,
		Mesh: mesh,
		reg:  r.reg,
	}
}

func baseName(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}
