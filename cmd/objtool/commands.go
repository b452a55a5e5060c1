package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/config"
	"github.com/Faultbox/objscene/internal/loader"
	"github.com/Faultbox/objscene/internal/logger"
	"github.com/Faultbox/objscene/internal/model"
	"github.com/Faultbox/objscene/internal/registry"
	"github.com/Faultbox/objscene/internal/scene"
	"github.com/Faultbox/objscene/pkg/pak"
)

type docCommand func(w io.Writer, doc *loader.Document, args []string) error

func withDocument(ctx context.Context, cfg *config.Config, name string, args []string, nargs int, fn docCommand) error {
	if len(args) < nargs {
		return fmt.Errorf("%s needs %d argument(s), see objtool help", name, nargs)
	}
	doc, err := loadDocument(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	return fn(os.Stdout, doc, args[1:])
}

// loadDocument loads docPath through the configured roots and packs. An
// absolute path adds its directory as the highest priority root.
func loadDocument(ctx context.Context, cfg *config.Config, docPath string) (*loader.Document, error) {
	m, err := newManager(cfg)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	if filepath.IsAbs(docPath) {
		if err := m.AddRoot(filepath.Dir(docPath)); err != nil {
			return nil, err
		}
		docPath = filepath.Base(docPath)
	}

	opts, err := loader.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.Logger = logger.Log

	doc, err := loader.New(m, opts).Load(ctx, filepath.ToSlash(docPath))
	hits, misses := m.Cache().Stats()
	logger.Debug("asset cache", zap.Int("hits", hits), zap.Int("misses", misses), zap.Strings("sources", m.Sources()))
	return doc, err
}

func cmdInfo(w io.Writer, doc *loader.Document, _ []string) error {
	fmt.Fprintf(w, "Document:  %s\n", doc.Path)
	fmt.Fprintf(w, "Mode:      %s\n", doc.Mode)

	if doc.Mode == loader.ModeMesh {
		fmt.Fprintln(w)
		printMesh(w, "merged", doc.Mesh)
		return nil
	}

	fmt.Fprintf(w, "Meshes:    %d\n", len(doc.Meshes))
	fmt.Fprintf(w, "Materials: %d\n", len(doc.Materials))
	fmt.Fprintf(w, "Images:    %d\n", len(doc.Images))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Meshes:")
	for i, m := range doc.Meshes {
		printMesh(w, registry.MeshLabel(i), m)
	}

	if len(doc.Materials) > 0 {
		fmt.Fprintln(w, "Materials:")
		for i, mat := range doc.Materials {
			c := mat.BaseColor
			fmt.Fprintf(w, "  %-12s %-16s color (%.2f %.2f %.2f %.2f)", registry.MaterialLabel(i), mat.Name, c[0], c[1], c[2], c[3])
			if mat.DiffuseTexture.Valid() {
				fmt.Fprintf(w, "  diffuse %s", doc.Label(mat.DiffuseTexture))
			}
			if mat.NormalTexture.Valid() {
				fmt.Fprintf(w, "  normal %s", doc.Label(mat.NormalTexture))
			}
			fmt.Fprintln(w)
		}
	}

	if len(doc.Images) > 0 {
		fmt.Fprintln(w, "Images:")
		for _, label := range imageLabels(doc) {
			h, _ := doc.Handle(label)
			img := doc.ImageOf(h)
			space := "linear"
			if img.SRGB {
				space = "srgb"
			}
			storage := "rgba"
			if img.IsCompressed() {
				storage = img.Compressed.Format.String()
			}
			fmt.Fprintf(w, "  %-24s %-5s %dx%d %s %s\n", label, img.Codec, img.Width, img.Height, space, storage)
		}
	}
	return nil
}

func printMesh(w io.Writer, label string, m *model.Mesh) {
	var attrs []string
	if m.Normals != nil {
		attrs = append(attrs, "normals")
	}
	if m.UVs != nil {
		attrs = append(attrs, "uvs")
	}
	b := m.Bounds
	fmt.Fprintf(w, "  %-12s %6d vertices %6d triangles  [%s]  bounds (%g %g %g)-(%g %g %g)\n",
		label, m.VertexCount(), m.TriangleCount(), strings.Join(attrs, " "),
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}

func cmdTree(w io.Writer, doc *loader.Document, _ []string) error {
	if doc.Scene == nil {
		return fmt.Errorf("%s has no scene in %s mode", doc.Path, doc.Mode)
	}
	doc.Scene.Walk(func(id scene.NodeID, depth int, n *scene.Node) {
		fmt.Fprintf(w, "%s%s", strings.Repeat("  ", depth), n.Name)
		if n.Mesh.Valid() {
			fmt.Fprintf(w, "  mesh=%s", doc.Label(n.Mesh))
		}
		if n.Material.Valid() {
			fmt.Fprintf(w, "  material=%s", doc.Label(n.Material))
		}
		fmt.Fprintln(w)
	})
	return nil
}

func cmdLabels(w io.Writer, doc *loader.Document, _ []string) error {
	for _, label := range doc.Labels() {
		h, _ := doc.Handle(label)
		fmt.Fprintf(w, "%-10s %s\n", h.Kind(), label)
	}
	return nil
}

func cmdExtract(w io.Writer, doc *loader.Document, args []string) error {
	outputDir := args[0]

	count := 0
	for _, label := range imageLabels(doc) {
		h, _ := doc.Handle(label)
		img := doc.ImageOf(h)

		rgba := img.RGBA
		if img.IsCompressed() {
			var err error
			if rgba, err = img.Compressed.Decompress(); err != nil {
				return fmt.Errorf("decompressing %s: %w", label, err)
			}
		}

		outputPath := filepath.Join(outputDir, filepath.FromSlash(extractName(label)))
		if err := writePNG(outputPath, rgba); err != nil {
			return err
		}
		fmt.Fprintf(w, "Extracted: %s -> %s\n", label, outputPath)
		count++
	}
	fmt.Fprintf(w, "(%d textures extracted)\n", count)
	return nil
}

// extractName keeps a texture label inside the output directory and gives
// it a .png extension.
func extractName(label string) string {
	p := strings.TrimPrefix(path.Clean("/"+label), "/")
	return strings.TrimSuffix(p, path.Ext(p)) + ".png"
}

func writePNG(outputPath string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", outputPath, err)
	}
	return f.Close()
}

func imageLabels(doc *loader.Document) []string {
	var out []string
	for _, label := range doc.Labels() {
		if h, _ := doc.Handle(label); h.Kind() == registry.KindImage {
			out = append(out, label)
		}
	}
	return out
}

func cmdPack(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	nameEncoding := fs.String("encoding", "", "Encoding of non-UTF-8 entry names")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: objtool pack <file.zip> [pattern]")
	}

	archive, err := pak.OpenEncoded(fs.Arg(0), *nameEncoding)
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, f := range archive.List() {
		if pattern != "" {
			matched, _ := path.Match(pattern, path.Base(f))
			if !matched && !strings.Contains(f, pattern) {
				continue
			}
		}
		fmt.Fprintln(w, f)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
	return nil
}

// cmdConfig prints the merged config as YAML. With a file argument it is
// written there; -user writes it to the user config directory.
func cmdConfig(w io.Writer, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	var (
		target string
		err    error
	)
	if args[0] == "-user" {
		target, err = cfg.Save()
	} else {
		target = args[0]
		err = cfg.SaveTo(target)
	}
	if err != nil {
		return err
	}
	logger.Info("config written", zap.String("path", target))
	fmt.Fprintf(w, "Wrote %s\n", target)
	return nil
}
