package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleExtractConstraints(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	filePath := getStringArg(args, "file_path")
	if filePath == "" {
		return errResult("file_path is required"), nil
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	seed := int64(getIntArg(args, "seed", int(s.seed)))
	res, err := extract.New(seed).ExtractFile(absPath)
	if err != nil {
		return errResult(fmt.Sprintf("extract failed: %v", err)), nil
	}

	return jsonResult(res), nil
}
