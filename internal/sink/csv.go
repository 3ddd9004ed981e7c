package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"shopee/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

// utf8BOM lets spreadsheet software detect the encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type CSV struct {
	path   string
	logger log.FieldLogger
}

func NewCSV(path string, logger log.FieldLogger) *CSV {
	return &CSV{
		path:   path,
		logger: logger.WithField("sink", "csv"),
	}
}

func (s *CSV) Name() string   { return "csv" }
func (s *CSV) Target() string { return s.path }
func (s *CSV) Path() string   { return s.path }

// Write stores the records as UTF-8 CSV with a BOM and a header row
func (s *CSV) Write(ctx context.Context, records []domain.FlatCategoryRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	err := writeAtomic(s.path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}

		cw := csv.NewWriter(w)
		if err := cw.Write(domain.Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for i, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := cw.Write(record.Values()); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}

		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV: %w", err)
		}
		return w.Flush()
	})
	if err != nil {
		return err
	}

	s.logger.Infof("💾 Saved %d categories to %s", len(records), s.path)
	return nil
}

// ReadCSV loads a file written by the CSV sink. Columns are matched by
// header name; missing ones read as empty strings.
func ReadCSV(path string) ([]domain.FlatCategoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if prefix, err := r.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = r.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s has no header row", path)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	records := make([]domain.FlatCategoryRecord, 0)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}

		values := make(map[string]string, len(header))
		for i, column := range header {
			values[column] = row[i]
		}
		records = append(records, domain.RecordFromMap(values))
	}

	return records, nil
}
