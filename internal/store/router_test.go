package store

import "testing"

func TestRouterPerProjectStores(t *testing.T) {
	r, err := NewRouterWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewRouterWithDir: %v", err)
	}
	defer r.CloseAll()

	s, err := r.ForProject("alpha")
	if err != nil {
		t.Fatalf("ForProject: %v", err)
	}
	if err := s.UpsertProject("alpha", "/tmp/alpha"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	if err := s.ReplaceFileRecords("alpha", "a.js", sampleResult()); err != nil {
		t.Fatalf("ReplaceFileRecords: %v", err)
	}

	// Same project resolves to the same open store
	again, err := r.ForProject("alpha")
	if err != nil {
		t.Fatalf("ForProject again: %v", err)
	}
	if again != s {
		t.Error("expected cached store instance")
	}

	infos, err := r.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 project, got %d", len(infos))
	}
	info := infos[0]
	if info.Name != "alpha" || info.RootPath != "/tmp/alpha" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Functions != 2 || info.Constraints != 2 {
		t.Errorf("counts = %d/%d, want 2/2", info.Functions, info.Constraints)
	}

	if !r.HasProject("alpha") {
		t.Error("HasProject should see the db file")
	}
	if err := r.DeleteProject("alpha"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if r.HasProject("alpha") {
		t.Error("db file should be gone after delete")
	}
}

func TestRouterRejectsWildcard(t *testing.T) {
	r, err := NewRouterWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewRouterWithDir: %v", err)
	}
	defer r.CloseAll()

	for _, name := range []string{"*", "all"} {
		if _, err := r.ForProject(name); err == nil {
			t.Errorf("expected error for project name %q", name)
		}
	}
}
