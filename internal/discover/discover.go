package discover

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/lang"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".claude": true, ".git": true, ".hg": true,
	".idea": true, ".npm": true, ".nyc_output": true,
	".pnpm-store": true, ".svn": true, ".tmp": true, ".vs": true,
	".vscode": true, ".yarn": true, "bower_components": true,
	"build": true, "coverage": true, "dist": true, "node_modules": true,
	"out": true, "temp": true, "tmp": true, "vendor": true,
}

// IGNORE_SUFFIXES are file suffixes to skip. Minified bundles and type
// declarations carry no analyzable function bodies.
var IGNORE_SUFFIXES = map[string]bool{
	".tmp": true, "~": true, ".min.js": true, ".min.mjs": true,
	".d.ts": true, ".d.mts": true, ".d.cts": true,
}

// FileInfo represents a discovered subject file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // relative to project root
	Language lang.Language // detected language
}

// Options configures file discovery.
type Options struct {
	IgnoreFile string   // path to .probeignore file (optional)
	Ignore     []string // extra glob patterns, e.g. from config
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// shouldSkipFile returns true if the file name matches an ignored suffix or
// an extra pattern.
func shouldSkipFile(name, rel string, extraIgnore []string) bool {
	for suffix := range IGNORE_SUFFIXES {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks a project root and returns all subject files with a
// registered extension.
func Discover(ctx context.Context, rootPath string, opts *Options) ([]FileInfo, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	// Check cancellation before starting walk
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Load .probeignore patterns if present
	var extraIgnore []string
	if opts != nil && opts.IgnoreFile != "" {
		extraIgnore, _ = loadIgnoreFile(opts.IgnoreFile)
	} else {
		ignPath := filepath.Join(rootPath, ".probeignore")
		extraIgnore, _ = loadIgnoreFile(ignPath)
	}
	if opts != nil {
		extraIgnore = append(extraIgnore, opts.Ignore...)
	}

	var files []FileInfo

	err = filepath.Walk(rootPath, func(path string, info os.FileInfo, walkErr error) error {
		// Check context cancellation periodically during walk
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(rootPath, path)

		if info.IsDir() {
			if shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldSkipFile(info.Name(), rel, extraIgnore) {
			return nil
		}

		l, ok := lang.LanguageForExtension(filepath.Ext(path))
		if !ok {
			return nil
		}
		files = append(files, FileInfo{
			Path:     path,
			RelPath:  filepath.ToSlash(rel),
			Language: l,
		})
		return nil
	})

	return files, err
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
