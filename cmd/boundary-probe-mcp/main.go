package main

import (
	"fmt"
	"io"
	"os"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version":
			fmt.Println("boundary-probe-mcp", version)
			return
		case "extract":
			os.Exit(runExtract(os.Args[2:]))
		case "harness":
			os.Exit(runHarness(os.Args[2:]))
		case "index":
			os.Exit(runIndex(os.Args[2:]))
		case "watch":
			os.Exit(runWatch(os.Args[2:]))
		case "install":
			os.Exit(runInstall(os.Args[2:]))
		case "uninstall":
			os.Exit(runUninstall(os.Args[2:]))
		case "update":
			os.Exit(runUpdate(os.Args[2:]))
		case "help", "--help", "-h":
			printUsage(os.Stdout)
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
			printUsage(os.Stderr)
			os.Exit(2)
		}
	}
	os.Exit(runServe())
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `boundary-probe-mcp %s — boundary-value constraint extraction for JS/TS

Usage:
  boundary-probe-mcp                    serve MCP over stdio (default)
  boundary-probe-mcp extract <file>     print extracted constraints as JSON
  boundary-probe-mcp harness <file>     write a mocha companion spec
  boundary-probe-mcp index <root>       index a project into the catalogue
  boundary-probe-mcp watch              poll indexed projects, reindex on change
  boundary-probe-mcp install            register with Claude Code / Codex / Cursor / Windsurf
  boundary-probe-mcp uninstall          remove registrations
  boundary-probe-mcp update             self-update from GitHub releases
  boundary-probe-mcp --version          print version

Flags:
  extract   --seed N
  harness   --out DIR  --seed N
  index     --project NAME
  install   --dry-run  --force
  uninstall --dry-run
  update    --dry-run
`, version)
}
