// shapetool is a CLI utility for working with MSTS/ORTS shape files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/railsim/shapeio/internal/config"
	"github.com/railsim/shapeio/internal/logger"
	"github.com/railsim/shapeio/pkg/compress"
	"github.com/railsim/shapeio/pkg/fileutil"
	"github.com/railsim/shapeio/pkg/shapefile"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "roundtrip", "rt":
		cmdRoundtrip(cfg, args)
	case "validate":
		cmdValidate(args)
	case "compress":
		cmdCompress(cfg, args, false)
	case "decompress":
		cmdCompress(cfg, args, true)
	case "find":
		cmdFind(cfg, args)
	case "replace":
		cmdReplace(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shapetool - MSTS/ORTS shape file utility

Usage:
  shapetool <command> [options]

Commands:
  info <file.s>                   Show shape table sizes and file kind
  roundtrip <file.s> [output.s]   Decode and re-encode a shape file
  validate <file.s>               Check cross-reference indices
  compress <file.s>               Compress in place via the ffeditc helper
  decompress <file.s>             Decompress in place via the ffeditc helper
  find <dir> [pattern...]         List shape files under a directory
  replace <file.s> <old> <new>    Replace text in a shape file

Examples:
  shapetool info route/shapes/station.s
  shapetool roundtrip station.s station_clean.s
  shapetool find ./routes "*.s"
  shapetool replace station.s oldtex.ace newtex.ace`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fatal("Usage: shapetool info <file.s>")
	}
	path := args[0]

	kind, err := shapefile.DetectKind(path)
	if err != nil {
		fatal("Error: %v", err)
	}
	fmt.Printf("File:   %s\n", path)
	fmt.Printf("Kind:   %s\n", kind)
	if kind == shapefile.KindCompressed {
		return
	}

	s, err := shapefile.Load(path)
	if err != nil {
		fatal("Error: %v", err)
	}

	fmt.Println()
	for _, row := range []struct {
		table string
		count int
	}{
		{"volumes", len(s.Volumes)},
		{"shaders", len(s.ShaderNames)},
		{"filter modes", len(s.TextureFilterNames)},
		{"points", len(s.Points)},
		{"uv points", len(s.UVPoints)},
		{"normals", len(s.Normals)},
		{"sort vectors", len(s.SortVectors)},
		{"colours", len(s.Colours)},
		{"matrices", len(s.Matrices)},
		{"images", len(s.Images)},
		{"textures", len(s.Textures)},
		{"light materials", len(s.LightMaterials)},
		{"light model cfgs", len(s.LightModelCfgs)},
		{"vtx states", len(s.VtxStates)},
		{"prim states", len(s.PrimStates)},
		{"lod controls", len(s.LodControls)},
		{"animations", len(s.Animations)},
	} {
		fmt.Printf("  %-18s %d\n", row.table, row.count)
	}
}

func cmdRoundtrip(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: shapetool roundtrip <file.s> [output.s]")
	}
	in := args[0]
	out := in
	if len(args) > 1 {
		out = args[1]
	}

	s, err := shapefile.Load(in)
	if err != nil {
		fatal("Error: %v", err)
	}
	style := shapefile.Style{Indent: cfg.Output.IndentWidth, UseTabs: cfg.Output.UseTabs}
	if err := shapefile.DumpStyled(s, out, style); err != nil {
		fatal("Error: %v", err)
	}
	fmt.Printf("Wrote: %s\n", out)
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fatal("Usage: shapetool validate <file.s>")
	}
	s, err := shapefile.Load(args[0])
	if err != nil {
		fatal("Error: %v", err)
	}
	if err := shapefile.Validate(s); err != nil {
		fatal("Invalid: %v", err)
	}
	fmt.Println("OK")
}

func cmdCompress(cfg *config.Config, args []string, decompress bool) {
	if len(args) < 1 {
		fatal("Usage: shapetool compress|decompress <file.s>")
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Compression.Timeout)
	defer cancel()

	var err error
	if decompress {
		err = compress.Decompress(ctx, args[0], cfg.Compression.HelperPath)
	} else {
		err = compress.Compress(ctx, args[0], cfg.Compression.HelperPath)
	}
	if err != nil {
		fatal("Error: %v", err)
	}
}

func cmdFind(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: shapetool find <dir> [pattern...]")
	}
	includes := cfg.Shapes.IncludeGlobs
	if len(args) > 1 {
		includes = args[1:]
	}

	files, err := fileutil.FindDirectoryFiles(args[0], includes, cfg.Shapes.ExcludeGlobs)
	if err != nil {
		fatal("Error: %v", err)
	}
	for _, f := range files {
		fmt.Println(f)
	}
	fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", len(files))
}

func cmdReplace(args []string) {
	fs := flag.NewFlagSet("replace", flag.ExitOnError)
	ignoreCase := fs.Bool("i", false, "Case-insensitive match")
	fs.Parse(args)

	if fs.NArg() < 3 {
		fatal("Usage: shapetool replace [-i] <file.s> <old> <new>")
	}
	path, old, new := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	var err error
	if *ignoreCase {
		err = fileutil.ReplaceIgnoreCase(path, old, new)
	} else {
		err = fileutil.Replace(path, old, new)
	}
	if err != nil {
		fatal("Error: %v", err)
	}
	logger.Info("replaced text", zap.String("file", path), zap.String("old", old), zap.String("new", new))
}
