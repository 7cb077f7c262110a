package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/harness"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGenerateHarness(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	ex := extract.New(seed)
	res, err := ex.ExtractFile(absPath)
	if err != nil {
		return errResult(fmt.Sprintf("extract failed: %v", err)), nil
	}

	outDir := getStringArg(args, "out_dir")
	if outDir == "" && s.harnessDir != "" {
		outDir = filepath.Join(filepath.Dir(absPath), s.harnessDir)
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return errResult(fmt.Sprintf("create out dir: %v", err)), nil
		}
	}

	spec, err := harness.New(ex).Generate(res, harness.Options{
		SubjectPath: absPath,
		OutDir:      outDir,
	})
	if err != nil {
		return errResult(fmt.Sprintf("generate harness: %v", err)), nil
	}

	if err := os.WriteFile(spec.Path, []byte(spec.Content), 0o644); err != nil {
		return errResult(fmt.Sprintf("write harness: %v", err)), nil
	}

	return jsonResult(spec), nil
}
