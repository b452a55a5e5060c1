package config

import (
	"flag"
	"strings"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagMode     = flag.String("mode", "", "Load mode: scene or mesh")
	flagParallel = flag.Int("parallel", -1, "Maximum concurrent texture fetches (0 = unlimited)")
	flagFormats  = flag.String("formats", "", "Comma-separated compressed texture formats the consumer accepts")
	flagEncoding = flag.String("encoding", "", "Text encoding of OBJ/MTL files")
	flagRoots    stringList
	flagPacks    stringList
)

func init() {
	flag.Var(&flagRoots, "root", "Asset root directory (repeatable)")
	flag.Var(&flagPacks, "pack", "Zip asset pack (repeatable)")
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMode != "" {
		cfg.Loader.Mode = *flagMode
	}
	if *flagParallel >= 0 {
		cfg.Loader.ParallelFetches = *flagParallel
	}
	if *flagFormats != "" {
		cfg.Loader.CompressedFormats = strings.Split(*flagFormats, ",")
	}
	if *flagEncoding != "" {
		cfg.Loader.SourceEncoding = *flagEncoding
	}
	if len(flagRoots) > 0 {
		cfg.Data.AssetRoots = append([]string(nil), flagRoots...)
	}
	if len(flagPacks) > 0 {
		cfg.Data.Packs = append([]string(nil), flagPacks...)
	}
}
