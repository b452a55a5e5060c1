// Package loader turns an OBJ document and the files it references into
// meshes, materials, textures and a scene. A load is all-or-nothing: it
// returns either a complete Document or a single *Error.
package loader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/config"
	"github.com/Faultbox/objscene/internal/logger"
	"github.com/Faultbox/objscene/internal/texture"
	"github.com/Faultbox/objscene/pkg/encoding"
)

// Fetcher reads a file by slash-separated path. Paths of referenced files
// are already joined with the document's directory.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, path string) ([]byte, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// Mode selects what a load produces.
type Mode int

const (
	// ModeScene resolves materials and textures and builds a scene.
	ModeScene Mode = iota
	// ModeMesh ignores material libraries and merges all models into
	// one mesh.
	ModeMesh
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeScene:
		return "scene"
	case ModeMesh:
		return "mesh"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "scene" or "mesh".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scene":
		return ModeScene, nil
	case "mesh":
		return ModeMesh, nil
	default:
		return 0, fmt.Errorf("unknown load mode %q", s)
	}
}

// Options configures a Loader.
type Options struct {
	Mode Mode
	// CompressedFormats lists block-compression families the consumer
	// uploads directly.
	CompressedFormats texture.CompressedFormats
	// SRGBDiffuse marks diffuse textures as sRGB. Normal maps are
	// always linear.
	SRGBDiffuse bool
	// ParallelFetches bounds concurrent texture fetches; 0 is unlimited.
	ParallelFetches int
	// Encoding is the text encoding of OBJ and MTL files; empty is UTF-8.
	Encoding string
	Logger   *zap.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeScene,
		SRGBDiffuse:     true,
		ParallelFetches: 4,
	}
}

// OptionsFromConfig maps the loader and logging configuration to Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	mode, err := ParseMode(cfg.Loader.Mode)
	if err != nil {
		return Options{}, err
	}
	compressed, err := texture.ParseCompressedFormats(cfg.Loader.CompressedFormats)
	if err != nil {
		return Options{}, err
	}
	if !encoding.IsUTF8(cfg.Loader.SourceEncoding) {
		if _, err := encoding.Lookup(cfg.Loader.SourceEncoding); err != nil {
			return Options{}, err
		}
	}
	if cfg.Loader.ParallelFetches < 0 {
		return Options{}, fmt.Errorf("parallel fetches must not be negative, got %d", cfg.Loader.ParallelFetches)
	}

	return Options{
		Mode:              mode,
		CompressedFormats: compressed,
		SRGBDiffuse:       cfg.Loader.SRGBDiffuse,
		ParallelFetches:   cfg.Loader.ParallelFetches,
		Encoding:          cfg.Loader.SourceEncoding,
	}, nil
}

// Loader decodes OBJ documents. It holds no per-load state and may be
// used for any number of concurrent loads.
type Loader struct {
	fetcher Fetcher
	opts    Options
	log     *zap.Logger
}

// New creates a loader reading referenced files through fetcher.
func New(fetcher Fetcher, opts Options) *Loader {
	log := opts.Logger
	if log == nil {
		log = logger.Log
	}
	return &Loader{
		fetcher: fetcher,
		opts:    opts,
		log:     log.Named("loader"),
	}
}

// Extensions returns the file extensions the loader handles.
func (l *Loader) Extensions() []string {
	return []string{"obj"}
}

// Options returns the loader's options.
func (l *Loader) Options() Options {
	return l.opts
}

// Load fetches the document at docPath and decodes it.
func (l *Loader) Load(ctx context.Context, docPath string) (*Document, error) {
	data, err := l.fetcher.Fetch(ctx, docPath)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, &Error{Kind: ErrFetch, Stage: StageDecoding, Path: docPath, Err: err}
	}
	return l.Decode(ctx, docPath, data)
}

// Decode decodes document bytes. docPath locates the files the document
// references.
func (l *Loader) Decode(ctx context.Context, docPath string, data []byte) (*Document, error) {
	r := l.newRun(ctx, docPath)

	doc, err := r.execute(data)
	if err != nil {
		r.log.Debug("load failed", zap.Stringer("stage", r.stage), zap.Error(err))
		r.enter(StageFailed)
		return nil, err
	}

	r.log.Info("document loaded",
		zap.Stringer("mode", l.opts.Mode),
		zap.Int("meshes", doc.MeshCount()),
		zap.Int("materials", len(doc.Materials)),
		zap.Int("images", len(doc.Images)),
		zap.Duration("elapsed", time.Since(r.started)))
	return doc, nil
}
