package filter

import "github.com/bmatcuk/doublestar/v4"

// Scope applies project-level include/exclude glob patterns on top of
// Eligible's fixed deny/allow sets. It is deliberately a separate,
// optional layer: C1's own predicate stays compile-time fixed per
// §4.1, but nothing in the spec forbids a caller narrowing the walk
// further with its own `.prism.kdl` include/exclude globs before or
// after consulting Eligible.
type Scope struct {
	include []string
	exclude []string
}

// NewScope builds a Scope from the glob patterns configured in
// `.prism.kdl`'s top-level `include`/`exclude` blocks. An empty include
// list means "everything not excluded is in scope".
func NewScope(include, exclude []string) *Scope {
	return &Scope{include: include, exclude: exclude}
}

// InScope reports whether p passes this Scope's include/exclude globs.
// p must already be a canonical forward-slash relative path.
func (s *Scope) InScope(p string) bool {
	for _, pat := range s.exclude {
		if ok, _ := doublestar.Match(pat, p); ok {
			return false
		}
	}
	if len(s.include) == 0 {
		return true
	}
	for _, pat := range s.include {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}
