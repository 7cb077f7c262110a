// Package extract derives boundary-value constraints from the parameters of
// functions in JS/TS source, without executing it. A pre-order tree walk
// discovers function definitions; a fixed catalogue of syntactic recognizers
// is applied to every node of each function body, accumulating Constraint
// records keyed by parameter identity. The result feeds a test-input
// generator downstream.
package extract

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/lang"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/parser"
)

// Extractor runs the pattern catalogue over parsed source. The embedded PRNG
// feeds the value generators; it is unsynchronized, so an Extractor must not
// be shared across goroutines.
type Extractor struct {
	rng *rand.Rand
}

// New returns an Extractor seeded with seed for reproducible generated
// values. Seed 0 selects a time-based seed.
func New(seed int64) *Extractor {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Extractor{rng: rand.New(rand.NewSource(seed))}
}

// ExtractFile reads and parses the subject file at path and extracts
// constraints for every function in it. The language is detected from the
// file extension. An unreadable or unparsable file aborts with no partial
// result.
func (e *Extractor) ExtractFile(path string) (Result, error) {
	l, ok := lang.LanguageForExtension(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subject: %w", err)
	}
	return e.ExtractSource(l, source)
}

// ExtractSource extracts constraints from in-memory source. The Result is
// built fresh on every call.
func (e *Extractor) ExtractSource(l lang.Language, source []byte) (Result, error) {
	source = stripBOM(source)
	tree, err := parser.Parse(l, source)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	defer tree.Close()

	spec := lang.ForLanguage(l)
	if spec == nil {
		return nil, fmt.Errorf("no language spec for %s", l)
	}
	funcKinds := make(map[string]bool, len(spec.FunctionNodeTypes))
	for _, k := range spec.FunctionNodeTypes {
		funcKinds[k] = true
	}

	res := Result{}
	// The walk does not prune function bodies: a nested function is recorded
	// as its own entry here AND scanned again as part of the enclosing body
	// walk below. Downstream consumers rely on both records existing.
	parser.Walk(tree.RootNode(), func(node *tree_sitter.Node) bool {
		if funcKinds[node.Kind()] {
			e.extractFunction(node, source, res)
		}
		return true
	})
	return res, nil
}

// extractFunction records one function's parameters and walks its body with
// the full recognizer catalogue.
func (e *Extractor) extractFunction(node *tree_sitter.Node, source []byte, res Result) {
	rec := &FunctionRecord{
		Name:        functionName(node, source),
		Params:      paramNames(node, source),
		StartLine:   int(node.StartPosition().Row) + 1,
		EndLine:     int(node.EndPosition().Row) + 1,
		Constraints: map[string][]Constraint{},
	}
	for _, p := range rec.Params {
		rec.Constraints[p] = []Constraint{}
	}
	res[rec.Name] = rec

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	parser.Walk(body, func(n *tree_sitter.Node) bool {
		e.applyRules(n, source, rec)
		return true
	})
}

// functionName resolves a function's name: the name field when present, the
// enclosing declarator/property/assignment target for expression-style
// functions, empty for anonymous ones.
func functionName(node *tree_sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return parser.NodeText(nameNode, source)
	}
	// const f = () => {} — name lives on the parent variable_declarator;
	// {f: function () {}} and f = function () {} follow the same shape.
	if p := node.Parent(); p != nil {
		switch p.Kind() {
		case "variable_declarator":
			if n := p.ChildByFieldName("name"); n != nil {
				return parser.NodeText(n, source)
			}
		case "pair":
			if n := p.ChildByFieldName("key"); n != nil {
				return parser.NodeText(n, source)
			}
		case "assignment_expression":
			if n := p.ChildByFieldName("left"); n != nil {
				return parser.NodeText(n, source)
			}
		}
	}
	return ""
}

// paramNames returns the identifier-shaped formal parameters in declared
// order. Destructuring, rest, and default-valued parameters carry no single
// identity and are skipped. TypeScript required/optional parameter wrappers
// are unwrapped to their identifier pattern.
func paramNames(node *tree_sitter.Node, source []byte) []string {
	params := []string{}
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		// x => ... shorthand: the lone parameter is its own field.
		if p := node.ChildByFieldName("parameter"); p != nil && p.Kind() == nodeIdent {
			params = append(params, parser.NodeText(p, source))
		}
		return params
	}
	for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
		child := paramsNode.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case nodeIdent:
			params = append(params, parser.NodeText(child, source))
		case "required_parameter", "optional_parameter":
			if pat := child.ChildByFieldName("pattern"); pat != nil && pat.Kind() == nodeIdent {
				params = append(params, parser.NodeText(pat, source))
			}
		}
	}
	return params
}

func stripBOM(source []byte) []byte {
	if len(source) >= 3 && source[0] == 0xEF && source[1] == 0xBB && source[2] == 0xBF {
		return source[3:]
	}
	return source
}
