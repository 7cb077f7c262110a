package lang

import "testing"

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		lang Language
	}{
		{".js", JavaScript},
		{".jsx", JavaScript},
		{".mjs", JavaScript},
		{".cjs", JavaScript},
		{".ts", TypeScript},
		{".mts", TypeScript},
		{".tsx", TSX},
	}
	for _, tt := range tests {
		spec := ForExtension(tt.ext)
		if spec == nil {
			t.Errorf("ForExtension(%q) = nil, want %s", tt.ext, tt.lang)
			continue
		}
		if spec.Language != tt.lang {
			t.Errorf("ForExtension(%q).Language = %s, want %s", tt.ext, spec.Language, tt.lang)
		}
	}
}

func TestForLanguage(t *testing.T) {
	for _, lang := range AllLanguages() {
		spec := ForLanguage(lang)
		if spec == nil {
			t.Errorf("ForLanguage(%s) = nil", lang)
		}
	}
}

func TestUnknownExtension(t *testing.T) {
	if spec := ForExtension(".py"); spec != nil {
		t.Errorf("ForExtension(.py) should be nil, got %v", spec)
	}
}

func TestFunctionNodeTypes(t *testing.T) {
	for _, lang := range AllLanguages() {
		spec := ForLanguage(lang)
		if spec == nil {
			t.Fatalf("%s spec not registered", lang)
		}
		found := map[string]bool{}
		for _, nt := range spec.FunctionNodeTypes {
			found[nt] = true
		}
		if !found["function_declaration"] || !found["arrow_function"] {
			t.Errorf("%s FunctionNodeTypes missing expected kinds: %v", lang, spec.FunctionNodeTypes)
		}
	}
}
