package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/splatgen/internal/source"
	"github.com/Faultbox/splatgen/pkg/grf"
)

// cmdModels lists archive entries that source.Open can load.
func cmdModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: splatgen models <file.grf> [pattern]")
		os.Exit(1)
	}

	archive, err := grf.Open(fs.Arg(0))
	if err != nil {
		fail(err)
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	files := archive.List()

	count := 0
	byFormat := make(map[source.Format]int)
	for _, f := range files {
		format, err := source.DetectFormat(f)
		if err != nil {
			continue
		}
		if pattern != "" {
			matched, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(f)))
			if !matched && !strings.Contains(strings.ToLower(f), pattern) {
				continue
			}
		}
		fmt.Println(f)
		byFormat[format]++
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	fmt.Fprintf(os.Stderr, "\n(%d models: %d rsw, %d rsm, %d gnd, %d gltf)\n", count,
		byFormat[source.FormatRSW], byFormat[source.FormatRSM], byFormat[source.FormatGND], byFormat[source.FormatGLTF])
}
