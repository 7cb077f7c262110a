package main

import (
	"fmt"
	"os"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/lang"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/parser"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func main() {
	// JS equality guard - check binary_expression operator/operand layout
	jsCode := []byte("function check(age) {\n  if (age === 30) {\n    throw new Error('nope');\n  }\n}\n")
	fmt.Println("=== JS EQUALITY GUARD ===")
	tree, err := parser.Parse(lang.JavaScript, jsCode)
	if err != nil {
		fmt.Println("Error:", err)
	}
	if tree != nil {
		printAST(tree.RootNode(), jsCode, 0)
		tree.Close()
	}

	// JS negated property + fs call - unary_expression wraps member_expression
	jsCode2 := []byte("function load(opts) {\n  if (!opts.force) {\n    return fs.readFileSync(opts.path);\n  }\n}\n")
	fmt.Println("\n=== JS NEGATED PROPERTY + READFILESYNC ===")
	tree2, err := parser.Parse(lang.JavaScript, jsCode2)
	if err != nil {
		fmt.Println("Error:", err)
	}
	if tree2 != nil {
		printAST(tree2.RootNode(), jsCode2, 0)
		tree2.Close()
	}

	// TS relational guard - type annotations must not change the guard shape
	tsCode := []byte("function gate(n: number): void {\n  if (n < 32) {\n    return;\n  }\n}\n")
	fmt.Println("\n=== TS RELATIONAL GUARD ===")
	tree3, err := parser.Parse(lang.TypeScript, tsCode)
	if err != nil {
		fmt.Println("Error:", err)
	}
	if tree3 != nil {
		printAST(tree3.RootNode(), tsCode, 0)
		tree3.Close()
	}

	// TSX member-call compare - indexOf inside a component body
	tsxCode := []byte("const Flag = ({list}) => list.indexOf('x') === -1 ? null : <b/>;\n")
	fmt.Println("\n=== TSX INDEXOF COMPARE ===")
	tree4, err := parser.Parse(lang.TSX, tsxCode)
	if err != nil {
		fmt.Println("Error:", err)
	}
	if tree4 != nil {
		printAST(tree4.RootNode(), tsxCode, 0)
		tree4.Close()
	}

	os.Exit(0)
}
