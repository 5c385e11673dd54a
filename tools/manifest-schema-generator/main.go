package main

import (
	"flag"
	"log"
	"os"

	"github.com/grovetools/zzz/pkg/manifest"
)

func main() {
	out := flag.String("o", "zzz.schema.json", "output file")
	flag.Parse()

	data, err := manifest.Schema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	if err := os.WriteFile(*out, append(data, '\n'), 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated manifest schema at %s", *out)
}
