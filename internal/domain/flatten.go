package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingCategoryID = errors.New("missing category_id")
	ErrInvalidCategoryID = errors.New("invalid category_id")
	ErrMissingPathName   = errors.New("path node without category_name")
)

// DecodeRecord decodes a single global_cats entry
func DecodeRecord(raw json.RawMessage) (RawCategoryRecord, error) {
	var record RawCategoryRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return RawCategoryRecord{}, fmt.Errorf("failed to decode category: %w", err)
	}
	return record, nil
}

// Flatten maps a raw category onto the fixed seven-field record.
// Path nodes past MaxDepth are ignored.
func Flatten(raw RawCategoryRecord) (FlatCategoryRecord, error) {
	id, err := normalizeCategoryID(raw.CategoryID)
	if err != nil {
		return FlatCategoryRecord{}, err
	}

	var levels [MaxDepth]string
	for i := 0; i < len(raw.Path) && i < MaxDepth; i++ {
		if raw.Path[i].Name == nil {
			return FlatCategoryRecord{}, fmt.Errorf("%w at depth %d", ErrMissingPathName, i+1)
		}
		levels[i] = *raw.Path[i].Name
	}

	image := ""
	if len(raw.Images) > 0 {
		image = raw.Images[0]
	}

	return FlatCategoryRecord{
		Category:      levels[0],
		Subcategory:   levels[1],
		Level3:        levels[2],
		Level4:        levels[3],
		Level5:        levels[4],
		CategoryID:    id,
		CategoryImage: image,
	}, nil
}

// FlattenItem decodes and flattens one global_cats entry
func FlattenItem(raw json.RawMessage) (FlatCategoryRecord, error) {
	record, err := DecodeRecord(raw)
	if err != nil {
		return FlatCategoryRecord{}, err
	}
	return Flatten(record)
}

// normalizeCategoryID renders the opaque id token as text: strings keep their
// content, numbers keep their literal form.
func normalizeCategoryID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", ErrMissingCategoryID
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidCategoryID, err)
		}
		return s, nil
	case '{', '[', 't', 'f':
		return "", fmt.Errorf("%w: %s", ErrInvalidCategoryID, trimmed)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidCategoryID, err)
		}
		return n.String(), nil
	}
}
