package domain

import "encoding/json"

// MaxDepth is the number of level columns a flattened category carries
const MaxDepth = 5

// Canonical column names, in the order every sink writes them
const (
	ColumnCategory      = "category"
	ColumnSubcategory   = "subcategory"
	ColumnLevel3        = "level3"
	ColumnLevel4        = "level4"
	ColumnLevel5        = "level5"
	ColumnCategoryID    = "category_id"
	ColumnCategoryImage = "category_image"
)

// Columns is the fixed schema shared by the CSV, XLSX and Postgres sinks
var Columns = []string{
	ColumnCategory,
	ColumnSubcategory,
	ColumnLevel3,
	ColumnLevel4,
	ColumnLevel5,
	ColumnCategoryID,
	ColumnCategoryImage,
}

// PathNode is one step of a category's ancestry path
type PathNode struct {
	Name *string `json:"category_name"`
}

// RawCategoryRecord is a category as returned by the global category API
type RawCategoryRecord struct {
	CategoryID json.RawMessage `json:"category_id"`
	Path       []PathNode      `json:"path"`
	Images     []string        `json:"images"`
}

// FlatCategoryRecord is the persisted form of a category
type FlatCategoryRecord struct {
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	Level3        string `json:"level3"`
	Level4        string `json:"level4"`
	Level5        string `json:"level5"`
	CategoryID    string `json:"category_id"`
	CategoryImage string `json:"category_image"`
}

// Values returns the record's fields in canonical column order
func (r FlatCategoryRecord) Values() []string {
	return []string{
		r.Category,
		r.Subcategory,
		r.Level3,
		r.Level4,
		r.Level5,
		r.CategoryID,
		r.CategoryImage,
	}
}

// Levels returns the five level fields from top-level category down
func (r FlatCategoryRecord) Levels() [MaxDepth]string {
	return [MaxDepth]string{r.Category, r.Subcategory, r.Level3, r.Level4, r.Level5}
}

// RecordFromMap builds a record from column-keyed values.
// Columns missing from the map become empty strings; unknown keys are ignored.
func RecordFromMap(values map[string]string) FlatCategoryRecord {
	return FlatCategoryRecord{
		Category:      values[ColumnCategory],
		Subcategory:   values[ColumnSubcategory],
		Level3:        values[ColumnLevel3],
		Level4:        values[ColumnLevel4],
		Level5:        values[ColumnLevel5],
		CategoryID:    values[ColumnCategoryID],
		CategoryImage: values[ColumnCategoryImage],
	}
}

// Stats summarizes an extracted category set
type Stats struct {
	Records       int `json:"records"`
	Categories    int `json:"categories"`
	Subcategories int `json:"subcategories"`
}

// Summarize counts records and distinct top-level and second-level names
func Summarize(records []FlatCategoryRecord) Stats {
	categories := make(map[string]struct{})
	subcategories := make(map[string]struct{})

	for _, r := range records {
		categories[r.Category] = struct{}{}
		subcategories[r.Subcategory] = struct{}{}
	}

	return Stats{
		Records:       len(records),
		Categories:    len(categories),
		Subcategories: len(subcategories),
	}
}
