package scanner

import "bytes"

// magicBytes maps a small set of well-known binary file signatures to
// the disguise they're worth flagging: a file saved with a source-code
// extension whose header actually matches one of these is almost
// certainly not code.
var magicBytes = map[string][]byte{
	"\x89PNG":  {0x89, 0x50, 0x4E, 0x47},
	"JPEG":     {0xFF, 0xD8, 0xFF},
	"PDF":      {0x25, 0x50, 0x44, 0x46},
	"ZIP":      {0x50, 0x4B, 0x03, 0x04},
	"PEheader": {0x4D, 0x5A},
}

// looksBinary reports whether header looks like binary content rather
// than source text: either it opens with a known binary file
// signature, or more than 30% of its bytes are non-printable control
// characters. Adapted from the teacher's
// internal/security/file_validator.go (FileValidator.checkMagicBytes +
// isBinaryData), trimmed to the two content-based checks: the per-
// language keyword sniffing (validateGoFile, validateJSFile, ...) is
// dropped as noise a tokenizer-driven indexer doesn't need — a file
// that merely lacks recognizable keywords is still text, just not
// code the Inverted Index Builder will find many terms in.
func looksBinary(header []byte) bool {
	if len(header) == 0 {
		return false
	}

	for _, sig := range magicBytes {
		if bytes.HasPrefix(header, sig) {
			return true
		}
	}

	nonPrintable := 0
	for _, b := range header {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	ratio := float64(nonPrintable) / float64(len(header))
	return ratio > 0.3
}
