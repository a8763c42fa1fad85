// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ManuGH/ccore/internal/extract"
)

func runEngines(args []string) int {
	fs := flag.NewFlagSet("ccore engines", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var jsonOut bool
	fs.BoolVar(&jsonOut, "json", false, "print the catalog as JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}
	reg := extract.NewRegistry(&cfg)

	type engineInfo struct {
		Name       string   `json:"name"`
		Available  bool     `json:"available"`
		MIMETypes  []string `json:"mime_types"`
		Extensions []string `json:"extensions,omitempty"`
		Priority   int      `json:"priority"`
		Category   string   `json:"category"`
		Requires   []string `json:"requires,omitempty"`
	}
	var catalog []engineInfo
	for _, p := range reg.All() {
		caps := p.Capabilities()
		catalog = append(catalog, engineInfo{
			Name:       p.Name(),
			Available:  reg.IsAvailable(p.Name()),
			MIMETypes:  caps.MIMETypes,
			Extensions: caps.Extensions,
			Priority:   caps.Priority,
			Category:   string(caps.Category),
			Requires:   caps.Requires,
		})
	}
	sort.SliceStable(catalog, func(i, j int) bool {
		return catalog[i].Priority > catalog[j].Priority
	})

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"engines": catalog}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAVAILABLE\tCATEGORY\tPRIORITY\tREQUIRES")
	for _, e := range catalog {
		fmt.Fprintf(w, "%s\t%t\t%s\t%d\t%s\n",
			e.Name, e.Available, e.Category, e.Priority, strings.Join(e.Requires, ","))
	}
	_ = w.Flush()
	return 0
}
