package sink

import (
	"context"
	"fmt"
	"os"

	"shopee/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

type XLSX struct {
	path   string
	sheet  string
	logger log.FieldLogger
}

func NewXLSX(path, sheet string, logger log.FieldLogger) *XLSX {
	if sheet == "" {
		sheet = defaultSheet
	}
	return &XLSX{
		path:   path,
		sheet:  sheet,
		logger: logger.WithField("sink", "xlsx"),
	}
}

func (s *XLSX) Name() string   { return "xlsx" }
func (s *XLSX) Target() string { return s.path }
func (s *XLSX) Path() string   { return s.path }

// Write stores the records on a single sheet with a header row
func (s *XLSX) Write(ctx context.Context, records []domain.FlatCategoryRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	if s.sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, s.sheet); err != nil {
			return fmt.Errorf("failed to name sheet %q: %w", s.sheet, err)
		}
	}

	sw, err := f.NewStreamWriter(s.sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet %q: %w", s.sheet, err)
	}

	if err := sw.SetRow("A1", toRow(domain.Columns)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toRow(record.Values())); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	err = writeAtomic(s.path, func(out *os.File) error {
		if err := f.Write(out); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infof("💾 Saved %d categories to %s (sheet %s)", len(records), s.path, s.sheet)
	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
