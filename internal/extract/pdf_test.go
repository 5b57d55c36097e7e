package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncopipe/drug-detective/internal/common"
)

func TestScanFolderFiltersToPDFs(t *testing.T) {
	folder := t.TempDir()
	for _, name := range []string{"a.pdf", "B.PDF", "notes.txt", "data.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(folder, "nested.pdf.d"), 0o755))

	names, err := ScanFolder(folder)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.pdf", "B.PDF"}, names)
}

func TestScanFolderMissingFolderIsSetupError(t *testing.T) {
	_, err := ScanFolder(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSetup)
}

func TestExtractTextMissingFile(t *testing.T) {
	e := NewPDFExtractor(nil)
	_, err := e.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
}

func TestExtractTextGarbageFile(t *testing.T) {
	folder := t.TempDir()
	path := filepath.Join(folder, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))

	e := NewPDFExtractor(nil)
	_, err := e.ExtractText(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
}
