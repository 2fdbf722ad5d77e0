package filter

import "testing"

func TestEligibleAllowsKnownExtensions(t *testing.T) {
	paths := []string{
		"src/main.go",
		"lib/utils.ts",
		"app/component.tsx",
		"README.md",
		"config.yaml",
		"data.json",
	}
	for _, p := range paths {
		if !Eligible(p) {
			t.Errorf("Eligible(%q) = false, want true", p)
		}
	}
}

func TestEligibleRejectsUnknownExtensions(t *testing.T) {
	paths := []string{"binary.exe", "image.png", "archive.zip", "Makefile"}
	for _, p := range paths {
		if Eligible(p) {
			t.Errorf("Eligible(%q) = true, want false", p)
		}
	}
}

func TestEligibleRejectsDeniedSegmentsAtAnyDepth(t *testing.T) {
	paths := []string{
		"node_modules/pkg/index.js",
		"src/vendor/node_modules/leftpad.js",
		".git/HEAD",
		"dist/bundle.js",
		"build/output.go",
		"coverage/report.json",
		".next/static/chunk.js",
		".prism/index.json",
		"a/b/c/dist/d/file.go",
	}
	for _, p := range paths {
		if Eligible(p) {
			t.Errorf("Eligible(%q) = true, want false", p)
		}
	}
}

func TestEligibleNeverFailsOnMalformedInput(t *testing.T) {
	malformed := []string{"", "/abs/path.go", "../escape.go", "..", ".", "../../x.go"}
	for _, p := range malformed {
		if Eligible(p) {
			t.Errorf("Eligible(%q) = true, want false", p)
		}
	}
}

func TestEligibleIsCaseInsensitiveOnExtension(t *testing.T) {
	if !Eligible("README.MD") {
		t.Error("Eligible(\"README.MD\") = false, want true")
	}
}

func TestScopeEmptyIncludeAllowsEverythingNotExcluded(t *testing.T) {
	s := NewScope(nil, []string{"**/testdata/**"})
	if !s.InScope("src/main.go") {
		t.Error("expected src/main.go to be in scope")
	}
	if s.InScope("internal/testdata/fixture.go") {
		t.Error("expected testdata path to be excluded")
	}
}

func TestScopeIncludeNarrowsToMatchingPatterns(t *testing.T) {
	s := NewScope([]string{"**/*.go"}, nil)
	if !s.InScope("internal/filter/filter.go") {
		t.Error("expected .go file to be in scope")
	}
	if s.InScope("internal/filter/filter.ts") {
		t.Error("expected .ts file to be out of scope")
	}
}

func TestScopeExcludeWinsOverInclude(t *testing.T) {
	s := NewScope([]string{"**/*.go"}, []string{"**/generated/**"})
	if s.InScope("internal/generated/code.go") {
		t.Error("expected excluded path to stay out of scope even if included by pattern")
	}
}
