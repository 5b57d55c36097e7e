package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/oncopipe/drug-detective/constants"
	"github.com/oncopipe/drug-detective/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes with
// one row per (drug, attribute) across all processed abstracts.
type Service struct {
	abstracts repository.AbstractRepository
	drugs     repository.DrugRepository
	logger    *slog.Logger
}

func NewService(abstracts repository.AbstractRepository, drugs repository.DrugRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{abstracts: abstracts, drugs: drugs, logger: logger}
}

// ExportAttributesXLSX returns an XLSX workbook as bytes.
func (s *Service) ExportAttributesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	abstracts, err := s.abstracts.ListAbstracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("query abstracts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Drug Attributes"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on ours.
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Abstract File",
		"Processed Date",
		"Drug",
		"Category",
		"Attribute",
		"Value",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, abstract := range abstracts {
		drugs, err := s.drugs.DrugsByAbstract(ctx, abstract.ID)
		if err != nil {
			return nil, fmt.Errorf("query drugs for abstract %d: %w", abstract.ID, err)
		}
		for _, drug := range drugs {
			attrs, err := s.drugs.AttributesByDrug(ctx, drug.ID)
			if err != nil {
				return nil, fmt.Errorf("query attributes for drug %d: %w", drug.ID, err)
			}
			for _, attr := range attrs {
				category := ""
				if cat, ok := constants.CategoryOf(attr.Name); ok {
					category = string(cat)
				}

				write := func(col int, v any) {
					cell, _ := excelize.CoordinatesToCellName(col, row)
					_ = f.SetCellValue(sheet, cell, v)
				}
				write(1, abstract.Filename)
				write(2, abstract.ProcessedDate.Format("2006-01-02"))
				write(3, drug.Name)
				write(4, category)
				write(5, attr.Name)
				write(6, attr.Value)
				row++
			}
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 32) // filename
	_ = f.SetColWidth(sheet, "B", "B", 14) // date
	_ = f.SetColWidth(sheet, "C", "C", 24) // drug
	_ = f.SetColWidth(sheet, "D", "D", 12) // category
	_ = f.SetColWidth(sheet, "E", "E", 52) // attribute
	_ = f.SetColWidth(sheet, "F", "F", 32) // value

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"abstracts", len(abstracts),
		"rows", row-2,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
