package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	r, err := store.NewRouterWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewRouterWithDir: %v", err)
	}
	t.Cleanup(r.CloseAll)
	return NewServer(r, Options{Seed: 7})
}

func toolReq(t *testing.T, args map[string]any) *mcp.CallToolRequest {
	t.Helper()
	b, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(b)},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want *mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

func writeSubject(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractConstraintsTool(t *testing.T) {
	srv := newTestServer(t)
	path := writeSubject(t, t.TempDir(), "check.js", `function check(age) {
  if (age == 30) {
    return true;
  }
}
`)

	res, err := srv.handleExtractConstraints(context.Background(), toolReq(t, map[string]any{"file_path": path}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var out extract.Result
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	rec := out["check"]
	if rec == nil {
		t.Fatalf("missing record for check, got %v", out)
	}
	cs := rec.Constraints["age"]
	if len(cs) != 2 {
		t.Fatalf("expected 2 constraints for age, got %d", len(cs))
	}
	if cs[0].Value != "30" || cs[1].Value != "NaN" {
		t.Errorf("constraint values = %q, %q, want 30, NaN", cs[0].Value, cs[1].Value)
	}
}

func TestExtractConstraintsMissingPath(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.handleExtractConstraints(context.Background(), toolReq(t, map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for missing file_path")
	}
	if got := resultText(t, res); !strings.Contains(got, "file_path is required") {
		t.Errorf("error text = %q", got)
	}
}

func TestGenerateHarnessTool(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	path := writeSubject(t, dir, "gate.js", `function gate(n) {
  if (n < 32) {
    return n;
  }
}
`)
	outDir := filepath.Join(dir, "specs")

	res, err := srv.handleGenerateHarness(context.Background(), toolReq(t, map[string]any{
		"file_path": path,
		"out_dir":   outDir,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var out struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if out.Path != filepath.Join(outDir, "gate.spec.js") {
		t.Errorf("path = %q", out.Path)
	}
	if !strings.Contains(out.Content, "describe('gate'") {
		t.Errorf("content missing describe block\n%s", out.Content)
	}

	written, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("harness file not written: %v", err)
	}
	if string(written) != out.Content {
		t.Error("file content differs from reported content")
	}
}

func TestProjectToolFlow(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()
	writeSubject(t, root, "check.js", `function check(age) {
  if (age == 30) {
    return true;
  }
}
`)

	// index_project
	res, err := srv.handleIndexProject(context.Background(), toolReq(t, map[string]any{
		"root_path": root,
		"project":   "probe",
	}))
	if err != nil {
		t.Fatalf("index handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("index failed: %s", resultText(t, res))
	}
	var indexed struct {
		Project string `json:"project"`
		Stats   struct {
			Functions   int `json:"functions"`
			Constraints int `json:"constraints"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &indexed); err != nil {
		t.Fatalf("unmarshal index result: %v", err)
	}
	if indexed.Project != "probe" {
		t.Errorf("project = %q, want probe", indexed.Project)
	}
	if indexed.Stats.Functions != 1 || indexed.Stats.Constraints != 2 {
		t.Errorf("stats = %+v", indexed.Stats)
	}

	// list_projects
	res, err = srv.handleListProjects(context.Background(), toolReq(t, nil))
	if err != nil {
		t.Fatalf("list projects handler error: %v", err)
	}
	var projects []struct {
		Name        string `json:"name"`
		Functions   int    `json:"functions"`
		Constraints int    `json:"constraints"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &projects); err != nil {
		t.Fatalf("unmarshal projects: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "probe" {
		t.Fatalf("projects = %+v", projects)
	}
	if projects[0].Functions != 1 || projects[0].Constraints != 2 {
		t.Errorf("project counts = %+v", projects[0])
	}

	// list_functions
	res, err = srv.handleListFunctions(context.Background(), toolReq(t, map[string]any{
		"project":      "probe",
		"name_pattern": "che",
	}))
	if err != nil {
		t.Fatalf("list functions handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("list functions failed: %s", resultText(t, res))
	}
	var funcs []struct {
		Name        string   `json:"name"`
		FilePath    string   `json:"file_path"`
		Params      []string `json:"params"`
		Constraints int      `json:"constraints"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &funcs); err != nil {
		t.Fatalf("unmarshal functions: %v", err)
	}
	if len(funcs) != 1 || funcs[0].Name != "check" {
		t.Fatalf("functions = %+v", funcs)
	}
	if funcs[0].FilePath != "check.js" || funcs[0].Constraints != 2 {
		t.Errorf("function row = %+v", funcs[0])
	}
	if len(funcs[0].Params) != 1 || funcs[0].Params[0] != "age" {
		t.Errorf("params = %v", funcs[0].Params)
	}

	// get_constraints
	res, err = srv.handleGetConstraints(context.Background(), toolReq(t, map[string]any{
		"project":       "probe",
		"function_name": "check",
	}))
	if err != nil {
		t.Fatalf("get constraints handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("get constraints failed: %s", resultText(t, res))
	}
	var detail []struct {
		Name        string                          `json:"name"`
		Constraints map[string][]extract.Constraint `json:"constraints"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &detail); err != nil {
		t.Fatalf("unmarshal detail: %v", err)
	}
	if len(detail) != 1 {
		t.Fatalf("detail = %+v", detail)
	}
	cs := detail[0].Constraints["age"]
	if len(cs) != 2 || cs[0].Value != "30" || cs[1].Value != "NaN" {
		t.Errorf("stored constraints = %+v", cs)
	}

	// delete_project
	res, err = srv.handleDeleteProject(context.Background(), toolReq(t, map[string]any{"project": "probe"}))
	if err != nil {
		t.Fatalf("delete handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("delete failed: %s", resultText(t, res))
	}

	res, err = srv.handleListProjects(context.Background(), toolReq(t, nil))
	if err != nil {
		t.Fatalf("list after delete error: %v", err)
	}
	projects = projects[:0]
	if err := json.Unmarshal([]byte(resultText(t, res)), &projects); err != nil {
		t.Fatalf("unmarshal projects after delete: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("projects after delete = %+v", projects)
	}
}

func TestListFunctionsUnknownProject(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.handleListFunctions(context.Background(), toolReq(t, map[string]any{"project": "ghost"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for unknown project")
	}
	if got := resultText(t, res); !strings.Contains(got, "project not found") {
		t.Errorf("error text = %q", got)
	}
}

func TestGetConstraintsUnknownFunction(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()
	writeSubject(t, root, "check.js", "function check(age) { return age; }\n")

	res, err := srv.handleIndexProject(context.Background(), toolReq(t, map[string]any{
		"root_path": root,
		"project":   "probe",
	}))
	if err != nil {
		t.Fatalf("index handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("index failed: %s", resultText(t, res))
	}

	res, err = srv.handleGetConstraints(context.Background(), toolReq(t, map[string]any{
		"project":       "probe",
		"function_name": "nope",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for unknown function")
	}
	if got := resultText(t, res); !strings.Contains(got, "function not found") {
		t.Errorf("error text = %q", got)
	}
}

func TestDeleteProjectUnknown(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.handleDeleteProject(context.Background(), toolReq(t, map[string]any{"project": "ghost"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for unknown project")
	}
}
