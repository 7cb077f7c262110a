package extract

// Kind hints how a consumer should stage fixtures for and render a
// constraint value.
type Kind string

const (
	KindFileWithContent Kind = "fileWithContent"
	KindFileExists      Kind = "fileExists"
	KindInteger         Kind = "integer"
	KindString          Kind = "string"
	KindPhoneNumber     Kind = "phoneNumber"
)

// Fixture path names emitted by the filesystem recognizers. The harness
// generator provisions mock-filesystem entries under exactly these names, so
// the two sides must agree on the spelling.
const (
	FixtureContentFile = "fullFile.txt"
	FixtureDirectory   = "someDir"
	FixturePlainFile   = "emptyFile.txt"
	FixtureEmptyDir    = "emptyDir"
	FixtureFullDir     = "fullDir"
)

// Constraint is one recognized boundary fact about a function parameter.
//
// Value holds a ready-to-emit literal expression string (a quoted string, a
// bare number, `false`, `NaN`) rather than a parsed runtime value: the
// downstream generator splices it directly into generated source. Kind is a
// consumer hint, not a type contract — the integer kind can carry a quoted
// string sentinel.
type Constraint struct {
	Ident      string `json:"ident"`
	Expression string `json:"expression"`
	Operator   string `json:"operator,omitempty"`
	Value      string `json:"value"`
	// AltValue is a reserved alternate-value slot. No current recognizer
	// populates it.
	AltValue string `json:"altvalue,omitempty"`
	FuncName string `json:"funcName"`
	Kind     Kind   `json:"kind"`
}

// FunctionRecord holds one function's parameter list, in declaration order,
// and the constraints discovered for each parameter. Every declared parameter
// has a Constraints entry, possibly empty. Constraint lists are append-only.
type FunctionRecord struct {
	Name        string                  `json:"name"`
	Params      []string                `json:"params"`
	StartLine   int                     `json:"startLine"`
	EndLine     int                     `json:"endLine"`
	Constraints map[string][]Constraint `json:"constraints"`
}

// Result maps function name to its record. When sibling functions share a
// name, the later walked one overwrites the earlier.
type Result map[string]*FunctionRecord

func (r *FunctionRecord) hasParam(name string) bool {
	for _, p := range r.Params {
		if p == name {
			return true
		}
	}
	return false
}

// add appends c to the constraint list for its ident.
func (r *FunctionRecord) add(c Constraint) {
	r.Constraints[c.Ident] = append(r.Constraints[c.Ident], c)
}

// ConstraintCount returns the total number of constraints in the result.
func (r Result) ConstraintCount() int {
	var n int
	for _, rec := range r {
		for _, cs := range rec.Constraints {
			n += len(cs)
		}
	}
	return n
}
