package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shopee/catalog/internal/domain"
	"shopee/catalog/internal/logging"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sample = []domain.FlatCategoryRecord{
	{Category: "Moda Feminina", Subcategory: "Roupas", Level3: "Vestidos", CategoryID: "100017", CategoryImage: "https://cf.shopee.com.br/file/a"},
	{Category: "Casa e Decoração", CategoryID: "100636"},
	{Category: "Eletrônicos", Subcategory: "Áudio", Level3: "Fones", Level4: "Sem fio", Level5: `Com "aspas", vírgula`, CategoryID: "00042", CategoryImage: ""},
}

func TestCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "categories.csv")
	s := NewCSV(path, logging.Discard())

	require.NoError(t, s.Write(context.Background(), sample))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, utf8BOM), "missing BOM")
	assert.True(t, bytes.HasPrefix(raw[len(utf8BOM):], []byte("category,subcategory,level3,level4,level5,category_id,category_image\n")))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	if diff := cmp.Diff(sample, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCSV_OverwritesPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.csv")
	s := NewCSV(path, logging.Discard())

	require.NoError(t, s.Write(context.Background(), sample))
	require.NoError(t, s.Write(context.Background(), sample[:1]))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

func TestReadCSV_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.csv")
	require.NoError(t, os.WriteFile(path, []byte("category_id,category\n7,Pets\n"), 0o644))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.FlatCategoryRecord{{Category: "Pets", CategoryID: "7"}}, got)
}

func TestXLSX_RoundTrip(t *testing.T) {
	testCases := []struct {
		name      string
		sheet     string
		wantSheet string
	}{
		{name: "default sheet", sheet: "", wantSheet: "Sheet1"},
		{name: "named sheet", sheet: "Categorias", wantSheet: "Categorias"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "categories.xlsx")
			s := NewXLSX(path, tc.sheet, logging.Discard())

			require.NoError(t, s.Write(context.Background(), sample))

			f, err := excelize.OpenFile(path)
			require.NoError(t, err)
			defer f.Close()

			assert.Equal(t, []string{tc.wantSheet}, f.GetSheetList())

			rows, err := f.GetRows(tc.wantSheet)
			require.NoError(t, err)
			require.Len(t, rows, len(sample)+1)
			assert.Equal(t, domain.Columns, rows[0])

			got := make([]domain.FlatCategoryRecord, 0, len(sample))
			for _, row := range rows[1:] {
				values := make(map[string]string, len(domain.Columns))
				for i, column := range domain.Columns {
					// GetRows drops trailing empty cells
					if i < len(row) {
						values[column] = row[i]
					}
				}
				got = append(got, domain.RecordFromMap(values))
			}
			if diff := cmp.Diff(sample, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestXLSX_InvalidSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.xlsx")
	s := NewXLSX(path, "bad/name?", logging.Discard())

	require.Error(t, s.Write(context.Background(), sample))
	assert.NoFileExists(t, path)
}

type fakeRepository struct {
	table   string
	mode    string
	records []domain.FlatCategoryRecord
	err     error
}

func (f *fakeRepository) Save(ctx context.Context, table, mode string, records []domain.FlatCategoryRecord) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.table, f.mode, f.records = table, mode, records
	return int64(len(records)), nil
}

func TestPostgres_Write(t *testing.T) {
	repo := &fakeRepository{}
	s := NewPostgres(repo, "categorias_shopee", "replace", logging.Discard())

	require.NoError(t, s.Write(context.Background(), sample))
	assert.Equal(t, "categorias_shopee", repo.table)
	assert.Equal(t, "replace", repo.mode)
	assert.Equal(t, sample, repo.records)
	assert.Equal(t, "categorias_shopee", s.Target())

	repo.err = errors.New("connection refused")
	assert.Error(t, s.Write(context.Background(), sample))
}

func TestSinks_NoRecords(t *testing.T) {
	dir := t.TempDir()
	repo := &fakeRepository{}

	sinks := []Sink{
		NewCSV(filepath.Join(dir, "categories.csv"), logging.Discard()),
		NewXLSX(filepath.Join(dir, "categories.xlsx"), "", logging.Discard()),
		NewPostgres(repo, "categorias_shopee", "replace", logging.Discard()),
	}

	for _, s := range sinks {
		t.Run(s.Name(), func(t *testing.T) {
			err := s.Write(context.Background(), nil)
			assert.ErrorIs(t, err, ErrNoRecords)
			assert.ErrorIs(t, s.Write(context.Background(), []domain.FlatCategoryRecord{}), ErrNoRecords)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Nil(t, repo.records)
}

func TestFailed(t *testing.T) {
	cause := errors.New("invalid DSN")
	s := Failed("postgres", "categorias_shopee", cause)

	assert.Equal(t, "postgres", s.Name())
	assert.Equal(t, "categorias_shopee", s.Target())
	assert.ErrorIs(t, s.Write(context.Background(), sample), cause)

	_, isArtifact := s.(Artifact)
	assert.False(t, isArtifact)
}
