package sink

import (
	"context"

	"shopee/catalog/internal/domain"
	"shopee/catalog/internal/repository"

	log "github.com/sirupsen/logrus"
)

type Postgres struct {
	repository repository.CategoryRepository
	table      string
	mode       string
	logger     log.FieldLogger
}

func NewPostgres(repo repository.CategoryRepository, table, mode string, logger log.FieldLogger) *Postgres {
	return &Postgres{
		repository: repo,
		table:      table,
		mode:       mode,
		logger:     logger.WithFields(log.Fields{"sink": "postgres", "table": table}),
	}
}

func (s *Postgres) Name() string   { return "postgres" }
func (s *Postgres) Target() string { return s.table }

func (s *Postgres) Write(ctx context.Context, records []domain.FlatCategoryRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	count, err := s.repository.Save(ctx, s.table, s.mode, records)
	if err != nil {
		return err
	}

	s.logger.Infof("💾 Saved %d categories to table %s (%s)", count, s.table, s.mode)
	return nil
}
