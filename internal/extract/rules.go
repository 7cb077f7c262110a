package extract

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/parser"
)

// Node kinds inspected by the catalogue.
const (
	nodeUnary  = "unary_expression"
	nodeBinary = "binary_expression"
	nodeCall   = "call_expression"
	nodeMember = "member_expression"
	nodeIdent  = "identifier"
	nodeString = "string"
	nodeNumber = "number"
)

var equalityOps = map[string]bool{"==": true, "!=": true, "===": true, "!==": true}

// applyRules runs every recognizer against one visited node. Each recognizer
// inspects the node and its immediate children only; a node missing an
// expected sub-field is skipped silently.
func (e *Extractor) applyRules(node *tree_sitter.Node, source []byte, rec *FunctionRecord) {
	switch node.Kind() {
	case nodeUnary:
		e.negatedProperty(node, source, rec)
	case nodeCall:
		e.fileRead(node, source, rec)
		e.dirRead(node, source, rec)
	case nodeBinary:
		e.equality(node, source, rec)
		e.relational(node, source, rec)
		e.memberCallCompare(node, source, rec)
	}
}

// negatedProperty matches `!p.prop` where p is a declared parameter. Both
// branches of the negation get a probe value: an object carrying the property
// as true, and a bare false.
func (e *Extractor) negatedProperty(node *tree_sitter.Node, source []byte, rec *FunctionRecord) {
	op := node.ChildByFieldName("operator")
	arg := node.ChildByFieldName("argument")
	if op == nil || arg == nil || parser.NodeText(op, source) != "!" || arg.Kind() != nodeMember {
		return
	}
	obj := arg.ChildByFieldName("object")
	prop := arg.ChildByFieldName("property")
	if obj == nil || prop == nil || obj.Kind() != nodeIdent {
		return
	}
	ident := parser.NodeText(obj, source)
	if !rec.hasParam(ident) {
		return
	}
	expr := parser.NodeText(node, source)
	opText := parser.NodeText(op, source)
	rec.add(Constraint{
		Ident:      ident,
		Expression: expr,
		Operator:   opText,
		Value:      "{" + parser.NodeText(prop, source) + ": true}",
		FuncName:   rec.Name,
		Kind:       KindString,
	})
	rec.add(Constraint{
		Ident:      ident,
		Expression: expr,
		Operator:   opText,
		Value:      "false",
		FuncName:   rec.Name,
		Kind:       KindString,
	})
}

// fileRead matches `x.readFileSync(p)` where p is a declared parameter. The
// three probes cover a readable file, a directory in place of a file, and a
// plain empty file.
func (e *Extractor) fileRead(node *tree_sitter.Node, source []byte, rec *FunctionRecord) {
	_, prop := memberCallee(node)
	if prop == nil || parser.NodeText(prop, source) != "readFileSync" {
		return
	}
	ident, ok := paramArgument(node, source, rec)
	if !ok {
		return
	}
	expr := parser.NodeText(node, source)
	rec.add(Constraint{Ident: ident, Expression: expr, Value: quote(FixtureContentFile), FuncName: rec.Name, Kind: KindFileWithContent})
	rec.add(Constraint{Ident: ident, Expression: expr, Value: quote(FixtureDirectory), FuncName: rec.Name, Kind: KindFileWithContent})
	rec.add(Constraint{Ident: ident, Expression: expr, Value: quote(FixturePlainFile), FuncName: rec.Name, Kind: KindFileExists})
}

// dirRead matches `x.readdirSync(p)` where p is a declared parameter,
// probing an empty and a non-empty directory fixture.
func (e *Extractor) dirRead(node *tree_sitter.Node, source []byte, rec *FunctionRecord) {
	_, prop := memberCallee(node)
	if prop == nil || parser.NodeText(prop, source) != "readdirSync" {
		return
	}
	ident, ok := paramArgument(node, source, rec)
	if !ok {
		return
	}
	expr := parser.NodeText(node, source)
	rec.add(Constraint{Ident: ident, Expression: expr, Value: quote(FixtureEmptyDir), FuncName: rec.Name, Kind: KindFileExists})
	rec.add(Constraint{Ident: ident, Expression: expr, Value: quote(FixtureFullDir), FuncName: rec.Name, Kind: KindFileExists})
}

// equality matches `x == lit` comparisons (and !=, ===, !==) with a bare
// identifier on the left.
//
// When x is a declared parameter, the probes are the right-hand text verbatim
// and a value guaranteed not to match: the NEQ sentinel for string literals,
// NaN otherwise. The verbatim text stays unparsed even when numeric.
//
// When x is NOT a declared parameter and the function has exactly one
// parameter, the comparison is treated as constraining that parameter
// indirectly: a negation sentinel wrapping the right-hand text, and a
// synthesized 10-digit string seeded with the literal's first 3 characters.
func (e *Extractor) equality(node *tree_sitter.Node, source []byte, rec *FunctionRecord) {
	left, right, op := binaryParts(node, source)
	if left == nil || right == nil || !equalityOps[op] || left.Kind() != nodeIdent {
		return
	}
	ident := parser.NodeText(left, source)
	expr := parser.NodeText(node, source)
	rightText := parser.NodeText(right, source)

	if rec.hasParam(ident) {
		alt := "NaN"
		if right.Kind() == nodeString {
			alt = quote("NEQ - " + stringInner(rightText))
		}
		rec.add(Constraint{Ident: ident, Expression: expr, Operator: op, Value: rightText, FuncName: rec.Name, Kind: KindInteger})
		rec.add(Constraint{Ident: ident, Expression: expr, Operator: op, Value: alt, FuncName: rec.Name, Kind: KindInteger})
		return
	}

	if len(rec.Params) != 1 {
		return
	}
	p := rec.Params[0]
	digits := spliceDigits(literalSeed(right, rightText), e.PhoneDigits())
	rec.add(Constraint{Ident: p, Expression: expr, Operator: op, Value: "'NEQ - " + rightText + "'", FuncName: rec.Name, Kind: KindString})
	rec.add(Constraint{Ident: p, Expression: expr, Operator: op, Value: quote(digits), FuncName: rec.Name, Kind: KindString})
}

// relational matches `p < n` / `p > n` with a declared parameter on the left
// and an integer literal on the right, probing one below and one above the
// boundary.
func (e *Extractor) relational(node *tree_sitter.Node, source []byte, rec *FunctionRecord) {
	left, right, op := binaryParts(node, source)
	if left == nil || right == nil || (op != "<" && op != ">") {
		return
	}
	if left.Kind() != nodeIdent || right.Kind() != nodeNumber {
		return
	}
	ident := parser.NodeText(left, source)
	if !rec.hasParam(ident) {
		return
	}
	v, err := strconv.Atoi(parser.NodeText(right, source))
	if err != nil {
		return
	}
	expr := parser.NodeText(node, source)
	rec.add(Constraint{Ident: ident, Expression: expr, Operator: op, Value: strconv.Itoa(v - 1), FuncName: rec.Name, Kind: KindInteger})
	rec.add(Constraint{Ident: ident, Expression: expr, Operator: op, Value: strconv.Itoa(v + 1), FuncName: rec.Name, Kind: KindInteger})
}

// memberCallCompare matches `p.indexOf("tok") == n`-style checks: a member
// call on a declared parameter, with a string-literal argument, compared
// against an index. The probe is the token padded to the compared position.
// The padding loop counts against the RAW right-hand source text under
// numeric coercion, so a non-numeric right side yields no padding.
func (e *Extractor) memberCallCompare(node *tree_sitter.Node, source []byte, rec *FunctionRecord) {
	left, right, op := binaryParts(node, source)
	if left == nil || right == nil || !equalityOps[op] || left.Kind() != nodeCall {
		return
	}
	obj, prop := memberCallee(left)
	if obj == nil || prop == nil || obj.Kind() != nodeIdent {
		return
	}
	ident := parser.NodeText(obj, source)
	if !rec.hasParam(ident) {
		return
	}
	arg := firstArgument(left)
	if arg == nil || arg.Kind() != nodeString {
		return
	}
	token := stringInner(parser.NodeText(arg, source))

	bound, _ := strconv.ParseFloat(parser.NodeText(right, source), 64)
	var padded strings.Builder
	for i := 0; float64(i) < bound; i++ {
		padded.WriteByte(' ')
	}
	padded.WriteString(token)

	rec.add(Constraint{
		Ident:      ident,
		Expression: parser.NodeText(node, source),
		Operator:   op,
		Value:      quote(padded.String()),
		FuncName:   rec.Name,
		Kind:       KindString,
	})
}

// binaryParts returns the left and right operands and the operator text of a
// binary expression.
func binaryParts(node *tree_sitter.Node, source []byte) (left, right *tree_sitter.Node, op string) {
	left = node.ChildByFieldName("left")
	right = node.ChildByFieldName("right")
	if opNode := node.ChildByFieldName("operator"); opNode != nil {
		op = parser.NodeText(opNode, source)
	}
	return left, right, op
}

// memberCallee returns the object and property of a call whose callee is a
// member expression, or nils otherwise.
func memberCallee(node *tree_sitter.Node) (obj, prop *tree_sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != nodeMember {
		return nil, nil
	}
	return fn.ChildByFieldName("object"), fn.ChildByFieldName("property")
}

// firstArgument returns the first named argument of a call, if any.
func firstArgument(node *tree_sitter.Node) *tree_sitter.Node {
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

// paramArgument returns the text of a call's first argument when it is a bare
// identifier naming a declared parameter.
func paramArgument(node *tree_sitter.Node, source []byte, rec *FunctionRecord) (string, bool) {
	arg := firstArgument(node)
	if arg == nil || arg.Kind() != nodeIdent {
		return "", false
	}
	ident := parser.NodeText(arg, source)
	if !rec.hasParam(ident) {
		return "", false
	}
	return ident, true
}

// literalSeed returns the splice seed for the synthesized digit string: the
// string literal's content when the right side is one, empty otherwise.
func literalSeed(right *tree_sitter.Node, rightText string) string {
	if right.Kind() == nodeString {
		return stringInner(rightText)
	}
	return ""
}

// stringInner strips the surrounding quote pair from a string literal's
// source text.
func stringInner(text string) string {
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return text[1 : len(text)-1]
		}
	}
	return text
}

func quote(s string) string {
	return `"` + s + `"`
}
