// Package tools exposes the constraint catalogue over MCP.
package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp    *mcp.Server
	router *store.StoreRouter

	seed       int64
	harnessDir string
	ignore     []string

	// indexMu serializes index_project with the background watcher.
	indexMu sync.Mutex
}

// Options carries defaults from the loaded config into the tool handlers.
type Options struct {
	Seed       int64
	HarnessDir string
	Ignore     []string
	Version    string
}

// NewServer creates the MCP server and registers all tools.
func NewServer(router *store.StoreRouter, opts Options) *Server {
	version := opts.Version
	if version == "" {
		version = "0.1.0"
	}
	srv := &Server{
		router:     router,
		seed:       opts.Seed,
		harnessDir: opts.HarnessDir,
		ignore:     opts.Ignore,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "boundary-probe-mcp",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// IndexLock returns the mutex guarding pipeline runs so the watcher can
// share it with the index_project tool.
func (s *Server) IndexLock() *sync.Mutex {
	return &s.indexMu
}

func (s *Server) registerTools() {
	// 1. extract_constraints
	s.mcp.AddTool(&mcp.Tool{
		Name:        "extract_constraints",
		Description: "Extract boundary-value constraints from one JavaScript/TypeScript file. Parses the file, matches guard patterns against each function parameter (negated property checks, fs reads, equality, relational and length comparisons), and returns per-parameter probe values grouped by function.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_path": {
					"type": "string",
					"description": "Absolute path to the .js/.mjs/.ts/.tsx file to analyze"
				},
				"seed": {
					"type": "integer",
					"description": "Seed for generated probe values (0 = random). Structure of the result does not depend on it."
				}
			},
			"required": ["file_path"]
		}`),
	}, s.handleExtractConstraints)

	// 2. generate_harness
	s.mcp.AddTool(&mcp.Tool{
		Name:        "generate_harness",
		Description: "Generate a mocha test harness for one source file. Extracts constraints, then writes a <name>.spec.js companion exercising every recorded probe value plus above/below neighbours for integer boundaries, with mock-fs staging for filesystem probes. Returns the written path and content.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_path": {
					"type": "string",
					"description": "Absolute path to the source file to generate a harness for"
				},
				"out_dir": {
					"type": "string",
					"description": "Directory to write the spec file into. Defaults to the source file's directory."
				},
				"seed": {
					"type": "integer",
					"description": "Seed for generated probe values (0 = random)"
				}
			},
			"required": ["file_path"]
		}`),
	}, s.handleGenerateHarness)

	// 3. index_project
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_project",
		Description: "Index a project tree into the constraint catalogue. Discovers JS/TS sources, extracts constraints from files whose content hash changed, and stores the records for querying. Incremental: unchanged files are skipped, vanished files are pruned.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"root_path": {
					"type": "string",
					"description": "Absolute path to the project root to index"
				},
				"project": {
					"type": "string",
					"description": "Catalogue name for the project. Defaults to a name derived from the root path."
				}
			},
			"required": ["root_path"]
		}`),
	}, s.handleIndexProject)

	// 4. list_projects
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List all indexed projects with root path, last index time, and function/constraint counts.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProjects)

	// 5. list_functions
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_functions",
		Description: "List functions recorded for a project, optionally filtered by a name substring. Returns file path, line range, parameters, and the number of stored constraints per function.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name as shown by list_projects"
				},
				"name_pattern": {
					"type": "string",
					"description": "Substring to match against function names (e.g. 'validate')"
				}
			},
			"required": ["project"]
		}`),
	}, s.handleListFunctions)

	// 6. get_constraints
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_constraints",
		Description: "Fetch the stored constraints for a function by name. Returns every matching function (names can repeat across files) with its parameters, location, and the full constraint list per parameter.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name as shown by list_projects"
				},
				"function_name": {
					"type": "string",
					"description": "Exact function name (e.g. 'validateInput')"
				}
			},
			"required": ["project", "function_name"]
		}`),
	}, s.handleGetConstraints)

	// 7. delete_project
	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_project",
		Description: "Remove a project and all of its stored functions and constraints from the catalogue.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name as shown by list_projects"
				}
			},
			"required": ["project"]
		}`),
	}, s.handleDeleteProject)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params.Arguments == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}
