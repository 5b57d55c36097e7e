package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/oncopipe/drug-detective/constants"
	"github.com/oncopipe/drug-detective/internal/common"
)

// TextExtractor is the extraction collaborator the pipeline depends on.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PDFExtractor extracts plain text from PDF abstracts, page by page.
type PDFExtractor struct {
	logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", common.ErrExtraction, filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("extract.pdf.close_error", "path", path, "error", cerr)
		}
	}()

	var sb strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract.
			e.logger.Warn("extract.pdf.page_error", "path", path, "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: no extractable text in %s (scanned or image-based?)",
			common.ErrExtraction, filepath.Base(path))
	}

	e.logger.Info("extract.pdf.ok", "path", path, "pages", numPages, "bytes", len(text))
	return text, nil
}

// ScanFolder lists PDF filenames in folder, in os.ReadDir order. Non-PDF
// entries and subdirectories are ignored.
func ScanFolder(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, common.NewAppError("INPUT_FOLDER", fmt.Sprintf("cannot read %s", folder), common.ErrSetup)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(entry.Name()))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
