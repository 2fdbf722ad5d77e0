package index

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// lineScanner performs a single zero-copy pass over raw file bytes,
// splitting on line feeds and stripping a trailing carriage return.
// Adapted from the teacher's internal/core/line_scanner.go, trimmed to
// the operations the Line Extractor (C3) actually needs.
type lineScanner struct {
	data  []byte
	pos   int
	lineN int
	done  bool
}

func newLineScanner(data []byte) *lineScanner {
	return &lineScanner{data: data}
}

func (ls *lineScanner) scan() ([]byte, int, bool) {
	if ls.done || ls.pos >= len(ls.data) {
		ls.done = true
		return nil, 0, false
	}

	start := ls.pos
	ls.lineN++

	idx := bytes.IndexByte(ls.data[ls.pos:], '\n')
	var end int
	if idx < 0 {
		end = len(ls.data)
		ls.pos = len(ls.data)
	} else {
		end = ls.pos + idx
		ls.pos = end + 1
	}
	if end > start && ls.data[end-1] == '\r' {
		end--
	}

	return ls.data[start:end], ls.lineN, true
}

// Extract splits raw file bytes into LineRecords per §4.3: lines are
// 1-indexed, empty/whitespace-only lines are omitted from the returned
// slice but counted toward totalLines, and invalid UTF-8 is repaired
// with the replacement character rather than rejecting the file.
func Extract(data []byte) (totalLines int, records []LineRecord) {
	if len(data) == 0 {
		return 0, nil
	}

	s := newLineScanner(data)
	for {
		raw, lineNum, ok := s.scan()
		if !ok {
			break
		}
		totalLines++

		text := repairUTF8(raw)
		if strings.TrimSpace(text) == "" {
			continue
		}

		records = append(records, LineRecord{
			Line:   lineNum,
			Text:   text,
			Length: len([]rune(text)),
		})
	}

	return totalLines, records
}

// repairUTF8 returns s as a string, substituting the Unicode
// replacement character for any invalid byte sequence rather than
// failing. utf8.Valid short-circuits the common, already-valid case.
func repairUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
