package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleIndexProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	rootPath := getStringArg(args, "root_path")
	if rootPath == "" {
		return errResult("root_path is required"), nil
	}

	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	project := getStringArg(args, "project")
	if project == "" {
		project = pipeline.ProjectNameFromPath(absPath)
	}

	st, err := s.router.ForProject(project)
	if err != nil {
		return errResult(fmt.Sprintf("open store: %v", err)), nil
	}

	// Lock to prevent concurrent indexing with the background watcher.
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	p := pipeline.New(ctx, st, absPath)
	p.ProjectName = project
	p.Seed = s.seed
	p.Ignore = s.ignore

	stats, err := p.Run()
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"project": project,
		"stats":   stats,
	}), nil
}
