package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"shop-admin/internal/seed"
)

// Writes the built-in demo catalog as a gzipped JSON file that the mock API
// can load through SEED_PATH or upload to S3 under S3_PREFIX.
func main() {
	out := flag.String("o", "data/seed/demo.json.gz", "output file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}
	defer file.Close()

	catalog := seed.Default()
	if err := catalog.Validate(); err != nil {
		log.Fatalf("Built-in catalog is invalid: %v", err)
	}
	if err := seed.Encode(file, catalog); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	fmt.Printf("Created %s (%d products, %d orders, %d status records)\n",
		*out, len(catalog.Products), len(catalog.Orders), len(catalog.Statuses))
}
