// Package pipeline indexes a project: discover subject files, extract
// constraints from the changed ones, and persist the catalogue.
package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/discover"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/store"
)

// Pipeline orchestrates incremental indexing of one project.
type Pipeline struct {
	ctx         context.Context
	Store       *store.Store
	RootPath    string
	ProjectName string
	// Seed feeds the per-file Extractors; 0 means time-based.
	Seed int64
	// Ignore adds discovery glob patterns on top of the built-in set.
	Ignore []string
}

// Stats summarizes one indexing run.
type Stats struct {
	Files       int   `json:"files"`
	Changed     int   `json:"changed"`
	Removed     int   `json:"removed"`
	Functions   int   `json:"functions"`
	Constraints int   `json:"constraints"`
	ElapsedMS   int64 `json:"elapsed_ms"`
}

// New creates a Pipeline for the project rooted at rootPath.
func New(ctx context.Context, s *store.Store, rootPath string) *Pipeline {
	return &Pipeline{
		ctx:         ctx,
		Store:       s,
		RootPath:    rootPath,
		ProjectName: ProjectNameFromPath(rootPath),
	}
}

// ProjectNameFromPath derives a unique project name from an absolute path
// by replacing path separators with dashes and trimming the leading dash.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.ReplaceAll(cleaned, "/", "-")
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "root"
	}
	return name
}

func (p *Pipeline) checkCancel() error {
	return p.ctx.Err()
}

// Run executes one indexing pass. Files whose stored content hash is
// unchanged are skipped; records of files that vanished are removed. All
// store writes happen in a single transaction.
func (p *Pipeline) Run() (*Stats, error) {
	start := time.Now()
	slog.Info("pipeline.start", "project", p.ProjectName, "path", p.RootPath)

	if err := p.checkCancel(); err != nil {
		return nil, err
	}

	t := time.Now()
	files, err := discover.Discover(p.ctx, p.RootPath, &discover.Options{Ignore: p.Ignore})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	slog.Info("pass.timing", "pass", "discover", "files", len(files), "elapsed", time.Since(t))

	changed, hashes, vanished := p.classifyFiles(files)
	if len(changed) == 0 && len(vanished) == 0 {
		slog.Info("pipeline.noop", "reason", "no_changes", "files", len(files))
		return p.stats(len(files), 0, 0, start), nil
	}
	slog.Info("pipeline.classify", "changed", len(changed), "removed", len(vanished), "total", len(files))

	t = time.Now()
	results := p.extractFiles(changed)
	slog.Info("pass.timing", "pass", "extract", "elapsed", time.Since(t))
	if err := p.checkCancel(); err != nil {
		return nil, err
	}

	t = time.Now()
	err = p.Store.WithTransaction(func(tx *store.Store) error {
		if err := tx.UpsertProject(p.ProjectName, p.RootPath); err != nil {
			return fmt.Errorf("upsert project: %w", err)
		}
		for i, f := range changed {
			r := results[i]
			if r.err != nil {
				slog.Warn("extract.file.err", "file", f.RelPath, "err", r.err)
				continue
			}
			slog.Debug("extract.file", "file", f.RelPath, "functions", len(r.res), "constraints", r.res.ConstraintCount())
			if err := tx.ReplaceFileRecords(p.ProjectName, f.RelPath, r.res); err != nil {
				return fmt.Errorf("store %s: %w", f.RelPath, err)
			}
			if hash, ok := hashes[f.RelPath]; ok {
				if err := tx.UpsertFileHash(p.ProjectName, f.RelPath, hash); err != nil {
					return fmt.Errorf("hash %s: %w", f.RelPath, err)
				}
			}
		}
		for _, rel := range vanished {
			if err := tx.DeleteFileRecords(p.ProjectName, rel); err != nil {
				return fmt.Errorf("delete %s: %w", rel, err)
			}
			if err := tx.DeleteFileHash(p.ProjectName, rel); err != nil {
				return fmt.Errorf("delete hash %s: %w", rel, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("pass.timing", "pass", "store", "elapsed", time.Since(t))

	st := p.stats(len(files), len(changed), len(vanished), start)
	slog.Info("pipeline.done", "functions", st.Functions, "constraints", st.Constraints, "elapsed", time.Since(start))
	return st, nil
}

func (p *Pipeline) stats(files, changed, removed int, start time.Time) *Stats {
	nFns, _ := p.Store.CountFunctions(p.ProjectName)
	nCs, _ := p.Store.CountConstraints(p.ProjectName)
	return &Stats{
		Files:       files,
		Changed:     changed,
		Removed:     removed,
		Functions:   nFns,
		Constraints: nCs,
		ElapsedMS:   time.Since(start).Milliseconds(),
	}
}

type hashResult struct {
	Hash string
	Err  error
}

// classifyFiles hashes discovered files in parallel and splits them into
// changed (new hash or unhashable) and unchanged against the stored hashes.
// It also reports stored rel paths that no longer exist on disk.
func (p *Pipeline) classifyFiles(files []discover.FileInfo) (changed []discover.FileInfo, hashes map[string]string, vanished []string) {
	stored, err := p.Store.GetFileHashes(p.ProjectName)
	if err != nil {
		stored = map[string]string{}
	}

	results := make([]hashResult, len(files))
	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers > 0 {
		g := new(errgroup.Group)
		g.SetLimit(numWorkers)
		for i, f := range files {
			g.Go(func() error {
				hash, hashErr := fileHash(f.Path)
				results[i] = hashResult{Hash: hash, Err: hashErr}
				return nil
			})
		}
		_ = g.Wait()
	}

	hashes = make(map[string]string, len(files))
	seen := make(map[string]bool, len(files))
	for i, f := range files {
		seen[f.RelPath] = true
		r := results[i]
		if r.Err != nil {
			changed = append(changed, f)
			continue
		}
		hashes[f.RelPath] = r.Hash
		if stored[f.RelPath] != r.Hash {
			changed = append(changed, f)
		}
	}
	for rel := range stored {
		if !seen[rel] {
			vanished = append(vanished, rel)
		}
	}
	return changed, hashes, vanished
}

type extractResult struct {
	res extract.Result
	err error
}

// extractFiles runs the Extractor over the changed files in parallel. Each
// task gets its own Extractor; the engine is not goroutine-safe.
func (p *Pipeline) extractFiles(files []discover.FileInfo) []extractResult {
	results := make([]extractResult, len(files))
	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(p.ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := extract.New(p.Seed).ExtractFile(f.Path)
			results[i] = extractResult{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
