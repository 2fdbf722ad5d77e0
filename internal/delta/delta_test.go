package delta

import (
	"testing"

	"github.com/standardbeagle/prismd/internal/index"
	"github.com/standardbeagle/prismd/internal/scanner"
)

func TestClassifyAdded(t *testing.T) {
	store := index.New("/project", "2.0")
	scanned := []scanner.File{{Path: "new.go", Bytes: []byte("package p\n")}}

	plan := Classify(store, scanned)
	if len(plan.Added) != 1 || plan.Added[0].Path != "new.go" {
		t.Errorf("Added = %+v, want [new.go]", plan.Added)
	}
	if len(plan.Modified) != 0 || len(plan.Deleted) != 0 || len(plan.Unchanged) != 0 {
		t.Errorf("expected only Added to be populated, got %+v", plan)
	}
}

func TestClassifyUnchanged(t *testing.T) {
	store := index.New("/project", "2.0")
	content := []byte("package p\n\nfunc f() {}\n")
	store.InsertOrReplaceFile("f.go", content)

	plan := Classify(store, []scanner.File{{Path: "f.go", Bytes: content}})
	if len(plan.Unchanged) != 1 || plan.Unchanged[0] != "f.go" {
		t.Errorf("Unchanged = %v, want [f.go]", plan.Unchanged)
	}
	if len(plan.Added) != 0 || len(plan.Modified) != 0 {
		t.Errorf("expected no Added/Modified, got %+v", plan)
	}
}

func TestClassifyModified(t *testing.T) {
	store := index.New("/project", "2.0")
	store.InsertOrReplaceFile("f.go", []byte("package p\n"))

	plan := Classify(store, []scanner.File{{Path: "f.go", Bytes: []byte("package p\n\nfunc g() {}\n")}})
	if len(plan.Modified) != 1 || plan.Modified[0].Path != "f.go" {
		t.Errorf("Modified = %+v, want [f.go]", plan.Modified)
	}
}

func TestClassifyDeleted(t *testing.T) {
	store := index.New("/project", "2.0")
	store.InsertOrReplaceFile("gone.go", []byte("package p\n"))

	plan := Classify(store, nil)
	if len(plan.Deleted) != 1 || plan.Deleted[0] != "gone.go" {
		t.Errorf("Deleted = %v, want [gone.go]", plan.Deleted)
	}
}

func TestClassifyMixedBatch(t *testing.T) {
	store := index.New("/project", "2.0")
	store.InsertOrReplaceFile("unchanged.go", []byte("package p\n"))
	store.InsertOrReplaceFile("modified.go", []byte("package p\n// v1\n"))
	store.InsertOrReplaceFile("deleted.go", []byte("package p\n"))

	scanned := []scanner.File{
		{Path: "unchanged.go", Bytes: []byte("package p\n")},
		{Path: "modified.go", Bytes: []byte("package p\n// v2\n")},
		{Path: "added.go", Bytes: []byte("package p\n")},
	}

	plan := Classify(store, scanned)
	if len(plan.Added) != 1 || plan.Added[0].Path != "added.go" {
		t.Errorf("Added = %+v", plan.Added)
	}
	if len(plan.Modified) != 1 || plan.Modified[0].Path != "modified.go" {
		t.Errorf("Modified = %+v", plan.Modified)
	}
	if len(plan.Unchanged) != 1 || plan.Unchanged[0] != "unchanged.go" {
		t.Errorf("Unchanged = %v", plan.Unchanged)
	}
	if len(plan.Deleted) != 1 || plan.Deleted[0] != "deleted.go" {
		t.Errorf("Deleted = %v", plan.Deleted)
	}
}

func TestClassifyDoesNotMutateStore(t *testing.T) {
	store := index.New("/project", "2.0")
	store.InsertOrReplaceFile("f.go", []byte("package p\n"))
	before := store.FileCount()

	Classify(store, []scanner.File{{Path: "new.go", Bytes: []byte("package p\n")}})

	if store.FileCount() != before {
		t.Errorf("Classify mutated the store: FileCount before=%d after=%d", before, store.FileCount())
	}
}
