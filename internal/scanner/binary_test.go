package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksBinaryDetectsPNGSignature(t *testing.T) {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	assert.True(t, looksBinary(header))
}

func TestLooksBinaryAcceptsSourceText(t *testing.T) {
	header := []byte("package main\n\nfunc main() {}\n")
	assert.False(t, looksBinary(header))
}

func TestLooksBinaryFlagsHighControlCharRatio(t *testing.T) {
	header := make([]byte, 100)
	for i := range header {
		header[i] = 0x01
	}
	assert.True(t, looksBinary(header))
}

func TestLooksBinaryEmptyHeaderIsNotBinary(t *testing.T) {
	assert.False(t, looksBinary(nil))
}
