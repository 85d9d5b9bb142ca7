//go:build mage

// Package main provides build targets for formdraft using Mage.
//
// Usage:
//
//	mage build       Compile draftctl to bin/
//	mage test        Run all tests
//	mage testRace    Run all tests with the race detector
//	mage testStores  Run the storage backend tests only
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install draftctl to GOPATH/bin
//	mage stats       Print Go line counts per package
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "draftctl"
	binaryDir  = "bin"
	cmdDir     = "./cmd/draftctl"
	versionVar = "github.com/mesh-intelligence/formdraft/internal/cli.Version"
)

// storePkgs are the packages that touch durable storage.
var storePkgs = []string{
	"./internal/memstore/...",
	"./internal/sqlite/...",
	"./internal/filestore/...",
	"./internal/boltstore/...",
	"./internal/leveldb/...",
	"./pkg/store/...",
}

// Build compiles draftctl to bin/. VERSION, when set, is stamped into the
// binary.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := os.Getenv("VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV("go", append(args, cmdDir)...)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestRace runs all tests with the race detector; the engine and the
// orchestrator fire timers on their own goroutines.
func TestRace() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// TestStores runs the storage backend tests only.
func TestStores() error {
	return sh.RunV("go", append([]string{"test"}, storePkgs...)...)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

type lineCount struct {
	prod, test int
}

// Stats prints Go line counts per package directory.
func Stats() error {
	counts := map[string]*lineCount{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := counts[dir]
		if !ok {
			c = &lineCount{}
			counts[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(counts))
	for d := range counts {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var total lineCount
	for _, d := range dirs {
		c := counts[d]
		total.prod += c.prod
		total.test += c.test
		fmt.Printf("%-24s %8s prod %8s test\n", d, humanize.Comma(int64(c.prod)), humanize.Comma(int64(c.test)))
	}
	fmt.Printf("%-24s %8s prod %8s test\n", "total", humanize.Comma(int64(total.prod)), humanize.Comma(int64(total.test)))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
