package main

import _ "embed"

//go:embed assets/skills/boundary-probe/SKILL.md
var skillBoundaryProbe string

//go:embed assets/codex-instructions.md
var codexInstructions string

// skillFiles maps skill directory name to embedded content.
var skillFiles = map[string]string{
	"boundary-probe": skillBoundaryProbe,
}
