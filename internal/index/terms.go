package index

import "strings"

// Tokenize splits a line of text into lowercase terms per §3: a Term is
// a lowercase alphanumeric-and-underscore run of length >= 2. Any other
// character splits a run; runs shorter than 2 are discarded.
//
// Grounded on the teacher's internal/analysis/duplicate_detector.go
// tokenizeCode (manual rune-by-rune accumulation instead of a regexp
// split, so a single pass handles both lowering and splitting).
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	var tokens []string
	var cur strings.Builder
	for _, r := range lower {
		if isTermRune(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() >= 2 {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
	}
	if cur.Len() >= 2 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func isTermRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	default:
		return false
	}
}

// BaseScore is the exported form of baseScore, for callers outside this
// package that need to recompute a line's intrinsic salience from a
// FileRecord/LineRecord pair without a Posting at hand (the Search
// Engine's linear fallback path, which has no postings to read
// BaseScore off of).
func BaseScore(lang string, length int) float64 {
	return baseScore(lang, length)
}

// baseScore computes a line's intrinsic salience per §4.4's reference
// function: 0.5*language_weight + 0.5*min(1, 20/length). Deterministic
// and bounded to [0, 1] for any lang/length input.
func baseScore(lang string, length int) float64 {
	if length <= 0 {
		length = 1
	}
	lengthTerm := 20.0 / float64(length)
	if lengthTerm > 1 {
		lengthTerm = 1
	}
	return 0.5*languageWeight(lang) + 0.5*lengthTerm
}

// RebuildInverted recomputes an InvertedIndex from a file list, the way
// the Snapshot Codec reconstructs it on load: per §6, the InvertedIndex
// is never persisted, only the FileRecords (and their LineRecords) are.
func RebuildInverted(files []*FileRecord) InvertedIndex {
	idx := make(InvertedIndex)
	for fi, f := range files {
		for li, rec := range f.Lines {
			addLine(idx, f.Language, fi, li, rec)
		}
	}
	return idx
}

// addLine tokenizes one LineRecord and appends one Posting per distinct
// token into idx, per §4.4 steps 1-4. Duplicate postings for the same
// (fileIndex, lineIndex) within a single term are suppressed by
// construction: each distinct token contributes exactly once per call.
func addLine(idx InvertedIndex, lang string, fileIndex, lineIndex int, rec LineRecord) {
	score := baseScore(lang, rec.Length)

	seen := make(map[string]bool)
	for _, tok := range Tokenize(rec.Text) {
		if seen[tok] {
			continue
		}
		seen[tok] = true

		idx[tok] = append(idx[tok], Posting{
			FileIndex: fileIndex,
			LineIndex: lineIndex,
			BaseScore: score,
			LineNum:   rec.Line,
		})
	}
}
