// objtool is a CLI utility for inspecting Wavefront OBJ documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/assets"
	"github.com/Faultbox/objscene/internal/config"
	"github.com/Faultbox/objscene/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, args[0], args[1:]); err != nil {
		logger.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "info":
		return withDocument(ctx, cfg, "info", args, 1, cmdInfo)
	case "tree":
		return withDocument(ctx, cfg, "tree", args, 1, cmdTree)
	case "labels", "ls":
		return withDocument(ctx, cfg, "labels", args, 1, cmdLabels)
	case "extract", "x":
		return withDocument(ctx, cfg, "extract", args, 2, cmdExtract)
	case "pack":
		return cmdPack(os.Stdout, args)
	case "config":
		return cmdConfig(os.Stdout, cfg, args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Println(`objtool - Wavefront OBJ/MTL scene inspector

Usage:
  objtool [flags] <command> [arguments]

Commands:
  info <file.obj>             Show meshes, materials and textures
  tree <file.obj>             Print the scene hierarchy
  labels <file.obj>           List labeled sub-assets
  extract <file.obj> <outdir> Write decoded textures as PNG
  pack <file.zip> [pattern]   List files in an asset pack
  config [-user | <file>]     Print the effective config, or save it

Flags:
  -config <path>   Config file
  -root <dir>      Asset root directory (repeatable)
  -pack <file>     Zip asset pack (repeatable)
  -mode <mode>     scene or mesh
  -parallel <n>    Maximum concurrent texture fetches
  -formats <list>  Compressed texture formats to keep (bc,etc2,astc)
  -encoding <name> Text encoding of OBJ/MTL files
  -debug           Enable debug logging

Examples:
  objtool info models/cube.obj
  objtool -root assets -pack base.zip tree house.obj
  objtool -formats bc extract models/cube.obj ./textures`)
}

// newManager builds the asset manager from the data configuration. Packs
// are added after roots so they take priority.
func newManager(cfg *config.Config) (*assets.Manager, error) {
	m := assets.NewManager()
	for _, root := range cfg.Data.AssetRoots {
		if err := m.AddRoot(root); err != nil {
			m.Close()
			return nil, err
		}
	}
	for _, p := range cfg.Data.Packs {
		if err := m.AddPack(p, cfg.Data.PackNameEncoding); err != nil {
			m.Close()
			return nil, err
		}
	}
	return m, nil
}
