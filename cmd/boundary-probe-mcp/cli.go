package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/config"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/harness"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/pipeline"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/store"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/watcher"
)

// loadConfig reads the user config, falling back to defaults on parse errors.
func loadConfig() config.Config {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		return config.Default()
	}
	return cfg
}

func openRouter(cfg config.Config) (*store.StoreRouter, error) {
	if cfg.DBPath != "" {
		return store.NewRouterWithDir(cfg.DBPath)
	}
	return store.NewRouter()
}

// parseTarget parses one positional path plus flags, accepting the path on
// either side of the flags.
func parseTarget(fs *flag.FlagSet, args []string, usage string) (string, bool) {
	target := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		target, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	switch {
	case target == "" && fs.NArg() == 1:
		target = fs.Arg(0)
	case target != "" && fs.NArg() == 0:
	default:
		fmt.Fprintln(os.Stderr, usage)
		return "", false
	}
	return target, true
}

func runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	seed := fs.Int64("seed", 0, "probe value seed (0 = random)")
	target, ok := parseTarget(fs, args, "usage: boundary-probe-mcp extract <file> [--seed N]")
	if !ok {
		return 2
	}

	cfg := loadConfig()
	if *seed == 0 {
		*seed = cfg.Seed
	}

	path, err := filepath.Abs(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	res, err := extract.New(*seed).ExtractFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func runHarness(args []string) int {
	fs := flag.NewFlagSet("harness", flag.ExitOnError)
	outDir := fs.String("out", "", "directory for the companion spec")
	seed := fs.Int64("seed", 0, "probe value seed (0 = random)")
	target, ok := parseTarget(fs, args, "usage: boundary-probe-mcp harness <file> [--out dir] [--seed N]")
	if !ok {
		return 2
	}

	cfg := loadConfig()
	if *seed == 0 {
		*seed = cfg.Seed
	}

	path, err := filepath.Abs(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ex := extract.New(*seed)
	res, err := ex.ExtractFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	dir := *outDir
	if dir == "" && cfg.HarnessDir != "" {
		dir = filepath.Join(filepath.Dir(path), cfg.HarnessDir)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "error: create out dir: %v\n", err)
			return 1
		}
	}

	spec, err := harness.New(ex).Generate(res, harness.Options{
		SubjectPath: path,
		OutDir:      dir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := os.WriteFile(spec.Path, []byte(spec.Content), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Println(spec.Path)
	return 0
}

func runIndex(args []string) int {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	project := fs.String("project", "", "catalogue name (default: derived from the root path)")
	target, ok := parseTarget(fs, args, "usage: boundary-probe-mcp index <root> [--project name]")
	if !ok {
		return 2
	}

	cfg := loadConfig()

	root, err := filepath.Abs(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	router, err := openRouter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer router.CloseAll()

	name := *project
	if name == "" {
		name = pipeline.ProjectNameFromPath(root)
	}

	st, err := router.ForProject(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	p := pipeline.New(context.Background(), st, root)
	p.ProjectName = name
	p.Seed = cfg.Seed
	p.Ignore = cfg.Ignore

	stats, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: indexing failed: %v\n", err)
		return 1
	}

	fmt.Printf("indexed %s: %d files (%d changed, %d removed), %d functions, %d constraints in %dms\n",
		name, stats.Files, stats.Changed, stats.Removed, stats.Functions, stats.Constraints, stats.ElapsedMS)
	return 0
}

func runWatch(args []string) int {
	_ = args
	cfg := loadConfig()

	router, err := openRouter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer router.CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexFn := func(ctx context.Context, projectName, rootPath string) error {
		st, err := router.ForProject(projectName)
		if err != nil {
			return err
		}
		p := pipeline.New(ctx, st, rootPath)
		p.ProjectName = projectName
		p.Seed = cfg.Seed
		p.Ignore = cfg.Ignore
		_, err = p.Run()
		return err
	}

	fmt.Fprintln(os.Stderr, "watching indexed projects (ctrl-c to stop)")
	watcher.New(router, indexFn, cfg.Ignore).Run(ctx)
	return 0
}
