package tools

import (
	"context"
	"fmt"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListFunctions(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project")
	if project == "" {
		return errResult("project is required"), nil
	}
	if !s.router.HasProject(project) {
		return errResult(fmt.Sprintf("project not found: %s", project)), nil
	}

	st, err := s.router.ForProject(project)
	if err != nil {
		return errResult(fmt.Sprintf("open store: %v", err)), nil
	}

	pattern := getStringArg(args, "name_pattern")
	funcs, err := st.ListFunctions(project, pattern)
	if err != nil {
		return errResult(fmt.Sprintf("list functions: %v", err)), nil
	}

	type funcInfo struct {
		Name        string   `json:"name"`
		FilePath    string   `json:"file_path"`
		StartLine   int      `json:"start_line"`
		EndLine     int      `json:"end_line"`
		Params      []string `json:"params"`
		Constraints int      `json:"constraints"`
	}

	result := make([]funcInfo, 0, len(funcs))
	for _, fn := range funcs {
		cs, _ := st.ConstraintsForFunction(fn.ID)
		result = append(result, funcInfo{
			Name:        fn.Name,
			FilePath:    fn.FilePath,
			StartLine:   fn.StartLine,
			EndLine:     fn.EndLine,
			Params:      fn.Params,
			Constraints: len(cs),
		})
	}

	return jsonResult(result), nil
}

func (s *Server) handleGetConstraints(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project")
	if project == "" {
		return errResult("project is required"), nil
	}
	name := getStringArg(args, "function_name")
	if name == "" {
		return errResult("function_name is required"), nil
	}
	if !s.router.HasProject(project) {
		return errResult(fmt.Sprintf("project not found: %s", project)), nil
	}

	st, err := s.router.ForProject(project)
	if err != nil {
		return errResult(fmt.Sprintf("open store: %v", err)), nil
	}

	funcs, err := st.GetFunctions(project, name)
	if err != nil {
		return errResult(fmt.Sprintf("get functions: %v", err)), nil
	}
	if len(funcs) == 0 {
		return errResult(fmt.Sprintf("function not found: %s", name)), nil
	}

	type funcConstraints struct {
		Name        string                          `json:"name"`
		FilePath    string                          `json:"file_path"`
		StartLine   int                             `json:"start_line"`
		EndLine     int                             `json:"end_line"`
		Params      []string                        `json:"params"`
		Constraints map[string][]extract.Constraint `json:"constraints"`
	}

	result := make([]funcConstraints, 0, len(funcs))
	for _, fn := range funcs {
		cs, csErr := st.ConstraintsForFunction(fn.ID)
		if csErr != nil {
			return errResult(fmt.Sprintf("load constraints: %v", csErr)), nil
		}
		grouped := make(map[string][]extract.Constraint)
		for _, c := range cs {
			grouped[c.Ident] = append(grouped[c.Ident], c)
		}
		result = append(result, funcConstraints{
			Name:        fn.Name,
			FilePath:    fn.FilePath,
			StartLine:   fn.StartLine,
			EndLine:     fn.EndLine,
			Params:      fn.Params,
			Constraints: grouped,
		})
	}

	return jsonResult(result), nil
}
