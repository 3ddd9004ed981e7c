package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"shopee/catalog/internal/domain"
)

var (
	// ErrMalformedJSON means the body could not be parsed as JSON at all
	ErrMalformedJSON = errors.New("malformed JSON response")
	// ErrUnexpectedShape means the JSON parsed but data.global_cats is missing or mistyped
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// StatusError is returned for any response other than 200 OK
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("HTTP error: %d", e.StatusCode)
	}
	return "HTTP error: " + e.Status
}

type categoryListResponse struct {
	Data *struct {
		Total      *int               `json:"total"`
		GlobalCats *[]json.RawMessage `json:"global_cats"`
	} `json:"data"`
}

func parseCategoryPage(body []byte, pageNumber, pageSize int) (*domain.CategoryPage, error) {
	var payload categoryListResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if payload.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrUnexpectedShape)
	}
	if payload.Data.GlobalCats == nil {
		return nil, fmt.Errorf("%w: missing data.global_cats", ErrUnexpectedShape)
	}

	page := &domain.CategoryPage{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		Items:      *payload.Data.GlobalCats,
	}
	if payload.Data.Total != nil {
		page.TotalItems = *payload.Data.Total
		page.HasTotal = true
	}

	return page, nil
}
