package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListProjects(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.router.ListProjects()
	if err != nil {
		return errResult(fmt.Sprintf("list projects: %v", err)), nil
	}

	type projectInfo struct {
		Name        string `json:"name"`
		RootPath    string `json:"root_path"`
		IndexedAt   string `json:"indexed_at"`
		Functions   int    `json:"functions"`
		Constraints int    `json:"constraints"`
	}

	result := make([]projectInfo, 0, len(projects))
	for _, p := range projects {
		result = append(result, projectInfo{
			Name:        p.Name,
			RootPath:    p.RootPath,
			IndexedAt:   p.IndexedAt,
			Functions:   p.Functions,
			Constraints: p.Constraints,
		})
	}

	return jsonResult(result), nil
}

func (s *Server) handleDeleteProject(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "project")
	if name == "" {
		return errResult("project is required"), nil
	}

	if !s.router.HasProject(name) {
		return errResult(fmt.Sprintf("project not found: %s", name)), nil
	}

	if err := s.router.DeleteProject(name); err != nil {
		return errResult(fmt.Sprintf("delete failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"deleted": name,
		"status":  "ok",
	}), nil
}
