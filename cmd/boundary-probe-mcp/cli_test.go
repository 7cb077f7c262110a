package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// testBinPath is set in TestMain — persists across all tests in this package.
var testBinPath string

func TestMain(m *testing.M) {
	// Build the binary once into a temp dir that persists for the full test run.
	tmpDir, err := os.MkdirTemp("", "bpm-cli-test-*")
	if err != nil {
		panic("create temp dir: " + err.Error())
	}

	binName := "boundary-probe-mcp"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	binPath := filepath.Join(tmpDir, binName)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	cmd := exec.CommandContext(ctx, "go", "build", "-o", binPath, "./")
	cmd.Dir = "."
	if out, err := cmd.CombinedOutput(); err != nil {
		cancel()
		os.RemoveAll(tmpDir)
		os.Stderr.Write(out)
		panic("build test binary: " + err.Error())
	}
	cancel()
	testBinPath = binPath

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func testCmd(t *testing.T, args ...string) *exec.Cmd {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return exec.CommandContext(ctx, testBinPath, args...)
}

// testEnvWithHome returns env vars with HOME (and USERPROFILE on Windows) set.
func testEnvWithHome(home string, extra ...string) []string {
	env := append(os.Environ(), "HOME="+home)
	if runtime.GOOS == "windows" {
		env = append(env, "USERPROFILE="+home)
	}
	return append(env, extra...)
}

// writeTestConfig points the catalogue at a throwaway directory so CLI tests
// never touch the real user cache.
func writeTestConfig(t *testing.T, home, dbDir string) {
	t.Helper()
	cfgDir := filepath.Join(home, ".config", "boundary-probe-mcp")
	if err := os.MkdirAll(cfgDir, 0o750); err != nil {
		t.Fatal(err)
	}
	cfg := fmt.Sprintf("db_path: %q\n", dbDir)
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCLI_Version(t *testing.T) {
	out, err := testCmd(t, "--version").CombinedOutput()
	if err != nil {
		t.Fatalf("--version failed: %v\n%s", err, out)
	}
	output := strings.TrimSpace(string(out))
	if !strings.HasPrefix(output, "boundary-probe-mcp") {
		t.Fatalf("unexpected --version output: %q", output)
	}
}

func TestCLI_Help(t *testing.T) {
	out, err := testCmd(t, "--help").CombinedOutput()
	if err != nil {
		t.Fatalf("--help failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "Usage:") {
		t.Fatalf("expected usage text, got: %s", out)
	}
}

func TestCLI_UnknownCommand(t *testing.T) {
	out, err := testCmd(t, "frobnicate").CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit for unknown command\n%s", out)
	}
	if !strings.Contains(string(out), "unknown command") {
		t.Fatalf("expected 'unknown command' in output, got: %s", out)
	}
}

func TestCLI_Extract(t *testing.T) {
	home := t.TempDir()
	dir := t.TempDir()
	subject := filepath.Join(dir, "check.js")
	src := "function check(age) {\n  if (age == 30) {\n    return true;\n  }\n}\n"
	if err := os.WriteFile(subject, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := testCmd(t, "extract", subject)
	cmd.Env = testEnvWithHome(home)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("extract failed: %v\n%s", err, out)
	}
	output := string(out)
	for _, want := range []string{`"check"`, `"age"`, `"30"`, `"NaN"`} {
		if !strings.Contains(output, want) {
			t.Fatalf("extract output missing %s:\n%s", want, output)
		}
	}
}

func TestCLI_ExtractMissingFile(t *testing.T) {
	home := t.TempDir()
	cmd := testCmd(t, "extract", filepath.Join(t.TempDir(), "nope.js"))
	cmd.Env = testEnvWithHome(home)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit for missing file\n%s", out)
	}
}

func TestCLI_Harness(t *testing.T) {
	home := t.TempDir()
	dir := t.TempDir()
	subject := filepath.Join(dir, "gate.js")
	src := "function gate(n) {\n  if (n < 32) {\n    return n;\n  }\n}\n"
	if err := os.WriteFile(subject, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "specs")

	cmd := testCmd(t, "harness", subject, "--out", outDir, "--seed", "7")
	cmd.Env = testEnvWithHome(home)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("harness failed: %v\n%s", err, out)
	}

	specPath := filepath.Join(outDir, "gate.spec.js")
	if !strings.Contains(string(out), specPath) {
		t.Fatalf("expected spec path in output, got: %s", out)
	}
	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("spec not written: %v", err)
	}
	if !strings.Contains(string(data), "describe('gate'") {
		t.Fatalf("spec missing describe block:\n%s", data)
	}
}

func TestCLI_IndexTwice(t *testing.T) {
	home := t.TempDir()
	writeTestConfig(t, home, filepath.Join(home, "catalogue"))

	root := t.TempDir()
	src := "function check(age) {\n  if (age == 30) {\n    return true;\n  }\n}\n"
	if err := os.WriteFile(filepath.Join(root, "check.js"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := testCmd(t, "index", root, "--project", "probe")
	cmd.Env = testEnvWithHome(home)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("index failed: %v\n%s", err, out)
	}
	output := string(out)
	if !strings.Contains(output, "indexed probe:") {
		t.Fatalf("unexpected index output: %s", output)
	}
	if !strings.Contains(output, "1 functions, 2 constraints") {
		t.Fatalf("expected function/constraint counts, got: %s", output)
	}

	// Second run over unchanged files reindexes nothing.
	cmd = testCmd(t, "index", root, "--project", "probe")
	cmd.Env = testEnvWithHome(home)
	out, err = cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("reindex failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "(0 changed") {
		t.Fatalf("expected incremental skip, got: %s", out)
	}
}

func TestCLI_InstallDryRun(t *testing.T) {
	home := t.TempDir()
	cmd := testCmd(t, "install", "--dry-run")
	cmd.Env = testEnvWithHome(home, "PATH="+t.TempDir())
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("install --dry-run failed: %v\n%s", err, out)
	}
	output := string(out)
	if !strings.Contains(output, "install") {
		t.Fatalf("expected 'install' in output, got: %s", output)
	}
	// Dry run should not create any files
	skillsDir := filepath.Join(home, ".claude", "skills")
	if _, err := os.Stat(skillsDir); !os.IsNotExist(err) {
		t.Fatal("dry-run should not create skills directory")
	}
}

func TestCLI_UninstallDryRun(t *testing.T) {
	home := t.TempDir()
	cmd := testCmd(t, "uninstall", "--dry-run")
	cmd.Env = testEnvWithHome(home, "PATH="+t.TempDir())
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("uninstall --dry-run failed: %v\n%s", err, out)
	}
	output := string(out)
	if !strings.Contains(output, "uninstall") {
		t.Fatalf("expected 'uninstall' in output, got: %s", output)
	}
}

func TestCLI_UpdateDryRun(t *testing.T) {
	cmd := testCmd(t, "update", "--dry-run")
	out, _ := cmd.CombinedOutput()
	output := string(out)
	if !strings.Contains(output, "checking for updates") {
		t.Fatalf("expected 'checking for updates' in output, got: %s", output)
	}
}

func TestCLI_InstallAndUninstall(t *testing.T) {
	home := t.TempDir()
	emptyPath := t.TempDir()

	// Install
	cmd := testCmd(t, "install")
	cmd.Env = testEnvWithHome(home, "PATH="+emptyPath, "SHELL=/bin/zsh")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("install failed: %v\n%s", err, out)
	}

	// Verify the skill was created
	skillFile := filepath.Join(home, ".claude", "skills", "boundary-probe", "SKILL.md")
	if _, err := os.Stat(skillFile); err != nil {
		t.Fatalf("skill not found after install: %v", err)
	}

	// Uninstall
	cmd = testCmd(t, "uninstall")
	cmd.Env = testEnvWithHome(home, "PATH="+emptyPath)
	out, err = cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("uninstall failed: %v\n%s", err, out)
	}

	// Verify the skill was removed
	skillDir := filepath.Join(home, ".claude", "skills", "boundary-probe")
	if _, err := os.Stat(skillDir); !os.IsNotExist(err) {
		t.Fatalf("skill dir %s should be removed after uninstall", skillDir)
	}
}

func TestCLI_InstallIdempotent(t *testing.T) {
	home := t.TempDir()
	emptyPath := t.TempDir()

	for i := 0; i < 2; i++ {
		cmd := testCmd(t, "install")
		cmd.Env = testEnvWithHome(home, "PATH="+emptyPath, "SHELL=/bin/zsh")
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("install round %d failed: %v\n%s", i, err, out)
		}
	}

	skillFile := filepath.Join(home, ".claude", "skills", "boundary-probe", "SKILL.md")
	if _, err := os.Stat(skillFile); err != nil {
		t.Fatal("skill missing after idempotent install")
	}
}

func TestCLI_InstallForceOverwrites(t *testing.T) {
	home := t.TempDir()
	emptyPath := t.TempDir()

	cmd := testCmd(t, "install")
	cmd.Env = testEnvWithHome(home, "PATH="+emptyPath, "SHELL=/bin/zsh")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("first install failed: %v\n%s", err, out)
	}

	skillFile := filepath.Join(home, ".claude", "skills", "boundary-probe", "SKILL.md")
	if err := os.WriteFile(skillFile, []byte("custom content"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd = testCmd(t, "install")
	cmd.Env = testEnvWithHome(home, "PATH="+emptyPath, "SHELL=/bin/zsh")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("second install failed: %v\n%s", err, out)
	}
	data, _ := os.ReadFile(skillFile)
	if string(data) != "custom content" {
		t.Fatal("install without --force should not overwrite customized skills")
	}

	cmd = testCmd(t, "install", "--force")
	cmd.Env = testEnvWithHome(home, "PATH="+emptyPath, "SHELL=/bin/zsh")
	out, err = cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("force install failed: %v\n%s", err, out)
	}
	data, _ = os.ReadFile(skillFile)
	if string(data) == "custom content" {
		t.Fatal("install --force should overwrite customized skills")
	}
}

func TestCLI_InstallPATHAppend(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell RC PATH append is Unix-specific")
	}

	home := t.TempDir()
	emptyPath := t.TempDir()

	cmd := testCmd(t, "install")
	cmd.Env = testEnvWithHome(home, "PATH="+emptyPath, "SHELL=/bin/zsh")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("install failed: %v\n%s", err, out)
	}

	zshrc := filepath.Join(home, ".zshrc")
	data, err := os.ReadFile(zshrc)
	if err != nil {
		t.Fatalf("expected .zshrc to be created: %v", err)
	}
	if !strings.Contains(string(data), "export PATH=") {
		t.Fatal("expected PATH export in .zshrc")
	}
	if !strings.Contains(string(data), "boundary-probe-mcp install") {
		t.Fatal("expected install comment in .zshrc")
	}
}
