// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/extract"
	"github.com/ManuGH/ccore/internal/fsutil"
)

func runExtract(args []string) int {
	fs := flag.NewFlagSet("ccore extract", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		engine  string
		engines string
		format  string
		mime    string
		timeout int
		jsonOut bool
		outPath string
	)
	fs.StringVar(&engine, "engine", "", "force a single engine")
	fs.StringVar(&engines, "engines", "", "comma-separated engine chain")
	fs.StringVar(&format, "format", "", "output format (text, markdown, html, json)")
	fs.StringVar(&mime, "mime", "", "declared MIME type, skips detection")
	fs.IntVar(&timeout, "timeout", 0, "extraction budget in seconds")
	fs.BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	fs.StringVar(&outPath, "o", "", "write output to FILE atomically instead of stdout")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one source is required (url, path or - for stdin)")
		return 2
	}

	src, err := sourceFromArg(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	src.MimeType = mime
	src.OutputFormat = format
	src.TimeoutSeconds = timeout
	for _, e := range strings.Split(engines, ",") {
		if e = strings.TrimSpace(e); e != "" {
			src.Engines = append(src.Engines, e)
		}
	}
	if len(src.Engines) == 0 && engine != "" {
		src.Engines = []string{engine}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}
	rt := extract.NewRouter(&cfg, extract.NewRegistry(&cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := rt.Extract(ctx, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		return 1
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	var out []byte
	if jsonOut {
		out, err = json.MarshalIndent(res, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		out = append(out, '\n')
	} else {
		out = []byte(res.Content)
	}

	if outPath != "" {
		if err := fsutil.WriteFileAtomic(outPath, out, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
			return 1
		}
		return 0
	}

	_, _ = os.Stdout.Write(out)
	if !bytes.HasSuffix(out, []byte("\n")) {
		fmt.Println()
	}
	return 0
}

// sourceFromArg classifies the positional argument: "-" reads raw content
// from stdin, http(s) schemes become URL sources, everything else is a
// local path.
func sourceFromArg(arg string) (*content.Source, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &content.Source{Content: string(data)}, nil
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		return &content.Source{URL: arg}, nil
	default:
		return &content.Source{FilePath: arg}, nil
	}
}
