// Package harness renders mocha companion specs from extraction results.
// The generated file stages filesystem fixtures with mock-fs and probes each
// constrained parameter with the extracted boundary values.
package harness

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/extract"
)

// CompanionFile is a generated spec ready to be written next to the subject.
type CompanionFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Options control where the companion file goes and how the subject is
// required from it.
type Options struct {
	// SubjectPath is the analyzed source file. The companion file name and
	// the require path derive from its base name.
	SubjectPath string
	// OutDir is the directory the companion file is placed in. Empty means
	// the subject's own directory.
	OutDir string
}

// Generator renders companion files. The value source supplies probe values
// around integer boundaries and synthesized phone-style strings.
type Generator struct {
	values *extract.Extractor
}

func New(values *extract.Extractor) *Generator {
	return &Generator{values: values}
}

// mockTree stages every fixture name the recognizers emit, so any
// filesystem-kind value resolves inside the mocked volume.
const mockTree = `    mock({
      '` + extract.FixtureContentFile + `': 'probe data',
      '` + extract.FixturePlainFile + `': '',
      '` + extract.FixtureDirectory + `': {},
      '` + extract.FixtureEmptyDir + `': {},
      '` + extract.FixtureFullDir + `': { 'member.txt': 'probe data' }
    });
`

// Generate renders one mocha spec covering every named function in res.
// Anonymous functions are skipped: they cannot be addressed on the required
// subject module.
func (g *Generator) Generate(res extract.Result, opts Options) (CompanionFile, error) {
	if opts.SubjectPath == "" {
		return CompanionFile{}, fmt.Errorf("generate harness: subject path is empty")
	}

	base := filepath.Base(opts.SubjectPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Dir(opts.SubjectPath)
	}

	requirePath := "./" + stem
	if rel, err := filepath.Rel(outDir, filepath.Join(filepath.Dir(opts.SubjectPath), stem)); err == nil {
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, ".") {
			rel = "./" + rel
		}
		requirePath = rel
	}

	var sb strings.Builder
	sb.WriteString("const assert = require('assert');\n")
	sb.WriteString("const mock = require('mock-fs');\n\n")
	fmt.Fprintf(&sb, "const subject = require('%s');\n", requirePath)

	for _, name := range sortedNames(res) {
		g.writeDescribe(&sb, name, res[name])
	}

	return CompanionFile{
		Path:    filepath.Join(outDir, stem+".spec.js"),
		Content: sb.String(),
	}, nil
}

func sortedNames(res extract.Result) []string {
	names := make([]string, 0, len(res))
	for name := range res {
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Generator) writeDescribe(sb *strings.Builder, name string, rec *extract.FunctionRecord) {
	fmt.Fprintf(sb, "\ndescribe('%s', function () {\n", name)
	total := 0
	for _, param := range rec.Params {
		for i, c := range rec.Constraints[param] {
			g.writeProbe(sb, name, rec, param, i+1, c)
			total++
		}
	}
	if total == 0 {
		fmt.Fprintf(sb, "  it('smoke', function () {\n")
		writeCall(sb, "    ", name, undefinedArgs(len(rec.Params)))
		sb.WriteString("  });\n")
	}
	sb.WriteString("});\n")
}

func (g *Generator) writeProbe(sb *strings.Builder, name string, rec *extract.FunctionRecord, param string, n int, c extract.Constraint) {
	fmt.Fprintf(sb, "  it('%s probe %d', function () {\n", param, n)
	switch c.Kind {
	case extract.KindFileExists, extract.KindFileWithContent:
		sb.WriteString(mockTree)
		sb.WriteString("    try {\n")
		writeCall(sb, "      ", name, argsFor(rec, param, c.Value))
		sb.WriteString("    } finally {\n")
		sb.WriteString("      mock.restore();\n")
		sb.WriteString("    }\n")
	case extract.KindInteger:
		writeCall(sb, "    ", name, argsFor(rec, param, c.Value))
		if v, err := strconv.Atoi(c.Value); err == nil {
			writeCall(sb, "    ", name, argsFor(rec, param, strconv.Itoa(g.values.IntBelow(v))))
			writeCall(sb, "    ", name, argsFor(rec, param, strconv.Itoa(g.values.IntAbove(v))))
		}
	case extract.KindPhoneNumber:
		writeCall(sb, "    ", name, argsFor(rec, param, c.Value))
		writeCall(sb, "    ", name, argsFor(rec, param, "'"+g.values.PhoneDigits()+"'"))
	default:
		writeCall(sb, "    ", name, argsFor(rec, param, c.Value))
	}
	sb.WriteString("  });\n")
}

func writeCall(sb *strings.Builder, indent, name, args string) {
	fmt.Fprintf(sb, "%sassert.doesNotThrow(function () { subject.%s(%s); });\n", indent, name, args)
}

// argsFor splices value into the constrained parameter's slot and fills the
// remaining slots with undefined.
func argsFor(rec *extract.FunctionRecord, param, value string) string {
	args := make([]string, len(rec.Params))
	for i, p := range rec.Params {
		if p == param {
			args[i] = value
		} else {
			args[i] = "undefined"
		}
	}
	return strings.Join(args, ", ")
}

func undefinedArgs(n int) string {
	args := make([]string, n)
	for i := range args {
		args[i] = "undefined"
	}
	return strings.Join(args, ", ")
}
