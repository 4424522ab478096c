// splatgen converts mesh models into Gaussian splat PLY files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "export":
		cmdExport(args)
	case "batch":
		cmdBatch(args)
	case "script":
		cmdScript(args)
	case "info":
		cmdInfo(args)
	case "watch":
		cmdWatch(args)
	case "models", "ls":
		cmdModels(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`splatgen - mesh to Gaussian splat exporter

Usage:
  splatgen <command> [options] <model> [output]

Commands:
  export <model> <out.ply>    Export one frame through the converter
  batch <model> <out.ply>     Export a frame range, one PLY per frame
  script <model> <out.mjs>    Write the generator script only
  info <model>                Show model and sampling statistics
  watch <model> <out.ply>     Re-export whenever the model changes
  models <file.grf> [pattern] List convertible models in an archive

Models: .gltf, .glb, .rsm, .gnd, .rsw (RO files may come from -grf archives)

Common options:
  -config <file>     Config file (.yaml or .toml)
  -mode <m>          surface or vertex
  -density <n>       Surface samples per square unit
  -sequence <s>      legacy or random (with -seed)
  -forward/-up <a>   Target axes (X, Y, Z, -X, -Y, -Z)
  -grf <file.grf>    Archive for models and textures
  -bake              Bake textures into splat colors
  -w                 Let the converter overwrite the output
  -debug             Debug logging

Examples:
  splatgen export model.glb model.ply
  splatgen batch -grf data.grf -start 0 -end 23 data/model/windmill.rsm mill.ply
  splatgen export -grf data.grf -bake data/prontera.rsw prontera.ply
  splatgen script -density 10 prontera.gnd prontera.mjs
  splatgen info -grf data.grf data/model/prontera/fountain.rsm
  splatgen models -n 20 data.grf "windmill"`)
}
