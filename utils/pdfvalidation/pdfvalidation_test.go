package pdfvalidation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePDFBytesMissingHeader(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("not a pdf"), EssayLimits)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid PDF file: missing PDF header", result.Error)
}

func TestValidatePDFBytesEmpty(t *testing.T) {
	result, err := ValidatePDFBytes(nil, EssayLimits)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid PDF file: missing PDF header", result.Error)
}

func TestValidatePDFBytesOversize(t *testing.T) {
	content := make([]byte, EssayLimits.MaxFileSizeMB*1024*1024+1)
	copy(content, []byte("%PDF-1.4"))

	result, err := ValidatePDFBytes(content, EssayLimits)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "exceeds maximum allowed size")
	assert.Equal(t, int64(len(content)), result.FileSize)
}

func TestValidatePDFBytesUnparseable(t *testing.T) {
	// Correct header but no valid cross-reference structure
	result, err := ValidatePDFBytes([]byte("%PDF-1.4\ngarbage body"), EssayLimits)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "Failed to read PDF")
}

func TestSanitizePDFTruncatesTrailingGarbage(t *testing.T) {
	content := []byte("%PDF-1.4\nbody\n%%EOF\n")
	withGarbage := append(append([]byte{}, content...), []byte("junk appended by mailer")...)

	cleaned := sanitizePDF(withGarbage)
	assert.True(t, bytes.Equal(content, cleaned))
}

func TestSanitizePDFLeavesCleanFilesAlone(t *testing.T) {
	content := []byte("%PDF-1.4\nbody\n%%EOF")
	assert.Equal(t, content, sanitizePDF(content))

	// Non-PDF input passes through untouched
	other := []byte(strings.Repeat("x", 32))
	assert.Equal(t, other, sanitizePDF(other))
}
