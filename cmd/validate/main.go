// Command validate checks published report artifacts: every noticias_<id>.json
// in a directory (or the files given as arguments) must parse strictly,
// satisfy the report schema, hold every required category and carry an
// RFC 3339 lastUpdated. The locality id in the file name must be served.
//
// Usage:
//
//	go run ./cmd/validate -dir ./public
//	go run ./cmd/validate public/noticias_leones.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/asesor-publico/noticias/internal/adapter/filestore"
	"github.com/asesor-publico/noticias/internal/domain"
)

// check tracks pass/fail for one artifact.
type check struct {
	name   string
	errors []string
}

func (c *check) errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *check) passed() bool { return len(c.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory containing noticias_<id>.json artifacts")
	flag.Parse()

	if *dir == "" && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(*dir, flag.Args(), os.Stdout))
}

func run(dir string, files []string, out io.Writer) int {
	catalog, err := domain.DefaultCatalog()
	if err != nil {
		fmt.Fprintf(out, "FATAL: load catalog: %v\n", err)
		return 1
	}
	normalizer, err := domain.NewNormalizer(nil)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	paths := append([]string(nil), files...)
	if dir != "" {
		found, err := filepath.Glob(filepath.Join(dir, "noticias_*.json"))
		if err != nil {
			fmt.Fprintf(out, "FATAL: list %s: %v\n", dir, err)
			return 1
		}
		paths = append(paths, found...)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		fmt.Fprintln(out, "No artifacts found.")
		return 1
	}

	fmt.Fprintln(out, "=== Report Artifact Validation ===")
	fmt.Fprintln(out)

	checks := make([]*check, 0, len(paths))
	for _, p := range paths {
		checks = append(checks, validateArtifact(p, catalog, normalizer))
	}

	allPassed := true
	for _, c := range checks {
		status := "PASS"
		if !c.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(c.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", c.name, status)
	}

	for _, c := range checks {
		if c.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", c.name)
		for i, e := range c.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateArtifact(path string, catalog *domain.Catalog, normalizer *domain.Normalizer) *check {
	c := &check{name: filepath.Base(path)}

	id, ok := filestore.LocalityFromArtifact(path)
	if !ok {
		c.errorf("file name does not match noticias_<id>.json")
	} else if _, err := catalog.Lookup(id); err != nil {
		c.errorf("%v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.errorf("read: %v", err)
		return c
	}

	if _, err := normalizer.ValidateArtifact(data); err != nil {
		c.errorf("%v", err)
	}
	return c
}
