package main

import (
	"flag"
	"log"
	"os"

	"github.com/spf13/cobra/doc"
	"github.com/wolfi-dev/setup-texlive/pkg/cli"
)

func main() {
	var target string
	var kind string
	flag.StringVar(&target, "target", "docs", "Target directory for generated files")
	flag.StringVar(&kind, "kind", "markdown", "Kind of docs to generate (supported: man, markdown)")
	flag.Parse()

	if err := os.MkdirAll(target, 0o755); err != nil {
		log.Fatalf("Error creating %s: %v\n", target, err)
	}
	log.Printf("Generating files into %s\n", target)

	root := cli.New()

	switch kind {
	case "markdown":
		if err := doc.GenMarkdownTree(root, target); err != nil {
			log.Fatalf("Error generating markdown: %v\n", err)
		}
	case "man":
		header := &doc.GenManHeader{Title: "SETUP-TEXLIVE", Section: "1", Source: "setup-texlive"}
		if err := doc.GenManTree(root, header, target); err != nil {
			log.Fatalf("Error generating man: %v\n", err)
		}
	default:
		log.Fatalf("invalid docs kind : %s", kind)
	}
}
