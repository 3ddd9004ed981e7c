package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopee/catalog/internal/client"
	"shopee/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Extractor walks the paginated category list one page at a time
type Extractor struct {
	client   client.ShopeeClient
	rl       ratelimit.Limiter
	pageSize int
	logger   log.FieldLogger
}

func NewExtractor(client client.ShopeeClient, pageSize int, pageDelay time.Duration, logger log.FieldLogger) *Extractor {
	rl := ratelimit.NewUnlimited()
	if pageDelay > 0 {
		rl = ratelimit.New(1, ratelimit.Per(pageDelay), ratelimit.WithoutSlack)
	}

	return &Extractor{
		client:   client,
		rl:       rl,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Extract fetches page 1 to learn the total, then every remaining page.
// A failed first request yields an empty, aborted result. Later pages that
// answer badly are skipped; a transport failure or cancellation stops the
// walk and keeps what was collected.
func (e *Extractor) Extract(ctx context.Context) *domain.ExtractionResult {
	result := &domain.ExtractionResult{
		Records: make([]domain.FlatCategoryRecord, 0),
		Pages:   make([]domain.PageOutcome, 0),
	}

	e.rl.Take()
	first, err := e.client.GetCategoryPage(ctx, 1, e.pageSize)
	if err != nil {
		result.Aborted = fmt.Sprintf("first request failed: %v", err)
		e.logger.Errorf("❌ Failed to fetch the first page: %v", err)
		return result
	}
	if !first.HasTotal {
		result.Aborted = "first response has no data.total"
		e.logger.Errorf("❌ First response does not report data.total")
		return result
	}

	result.TotalItems = first.TotalItems
	result.TotalPages = first.TotalPages()
	e.logger.Infof("📊 %d categories reported, %d pages of %d", result.TotalItems, result.TotalPages, e.pageSize)

	for pageNumber := 1; pageNumber <= result.TotalPages; pageNumber++ {
		pageLogger := e.logger.WithField("page", pageNumber)

		page := first
		if pageNumber > 1 {
			e.rl.Take()
			if err := ctx.Err(); err != nil {
				result.Aborted = fmt.Sprintf("stopped before page %d: %v", pageNumber, err)
				pageLogger.Warnf("🛑 Extraction stopped: %v", err)
				break
			}

			page, err = e.client.GetCategoryPage(ctx, pageNumber, e.pageSize)
			if err != nil {
				if !skippable(err) {
					result.Aborted = fmt.Sprintf("page %d: %v", pageNumber, err)
					pageLogger.Errorf("❌ Extraction stopped at page %d/%d: %v", pageNumber, result.TotalPages, err)
					break
				}

				result.Pages = append(result.Pages, domain.PageOutcome{
					PageNumber: pageNumber,
					Status:     domain.PageStatusSkipped,
					Reason:     err.Error(),
				})
				pageLogger.Warnf("⚠️ Skipping page %d/%d: %v", pageNumber, result.TotalPages, err)
				continue
			}

			if page.HasTotal && page.TotalItems != result.TotalItems {
				pageLogger.Debugf("Page reports total %d, first page reported %d", page.TotalItems, result.TotalItems)
			}
		}

		outcome, records := e.flattenPage(pageLogger, page)
		result.Records = append(result.Records, records...)
		result.Pages = append(result.Pages, outcome)

		pageLogger.Infof("🔄 Page %d/%d: %d categories", pageNumber, result.TotalPages, outcome.Records)
	}

	e.logger.Infof("✅ Extracted %d categories (%d pages skipped, %d items skipped)",
		len(result.Records), result.SkippedPages(), result.SkippedItems())

	return result
}

func (e *Extractor) flattenPage(logger log.FieldLogger, page *domain.CategoryPage) (domain.PageOutcome, []domain.FlatCategoryRecord) {
	outcome := domain.PageOutcome{
		PageNumber: page.PageNumber,
		Status:     domain.PageStatusOK,
		Items:      len(page.Items),
	}

	records := make([]domain.FlatCategoryRecord, 0, len(page.Items))
	for i, item := range page.Items {
		record, err := e.flattenItem(logger, item)
		if err != nil {
			outcome.SkippedItems = append(outcome.SkippedItems, domain.SkippedItem{Index: i, Reason: err.Error()})
			logger.Warnf("⚠️ Skipping category %d on page %d: %v", i, page.PageNumber, err)
			continue
		}
		records = append(records, record)
	}

	outcome.Records = len(records)
	return outcome, records
}

func (e *Extractor) flattenItem(logger log.FieldLogger, item json.RawMessage) (domain.FlatCategoryRecord, error) {
	raw, err := domain.DecodeRecord(item)
	if err != nil {
		return domain.FlatCategoryRecord{}, err
	}

	if len(raw.Path) > domain.MaxDepth {
		logger.Debugf("Category path has %d levels, keeping the first %d", len(raw.Path), domain.MaxDepth)
	}

	return domain.Flatten(raw)
}

// skippable reports whether a page error loses only that page
func skippable(err error) bool {
	var statusErr *client.StatusError
	return errors.As(err, &statusErr) ||
		errors.Is(err, client.ErrMalformedJSON) ||
		errors.Is(err, client.ErrUnexpectedShape)
}
