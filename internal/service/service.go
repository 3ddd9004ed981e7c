package service

import (
	"context"
	"time"

	"shopee/catalog/internal/client"
	"shopee/catalog/internal/domain"
	"shopee/catalog/internal/report"
	"shopee/catalog/internal/sink"
	"shopee/catalog/internal/state"
	"shopee/catalog/internal/upload"

	log "github.com/sirupsen/logrus"
)

type Service struct {
	client    client.ShopeeClient
	extractor *Extractor
	sinks     []sink.Sink
	uploader  upload.Uploader
	store     state.Store
	logger    log.FieldLogger
}

// NewService wires one run. uploader may be nil.
func NewService(
	client client.ShopeeClient,
	extractor *Extractor,
	sinks []sink.Sink,
	uploader upload.Uploader,
	store state.Store,
	logger log.FieldLogger,
) *Service {
	return &Service{
		client:    client,
		extractor: extractor,
		sinks:     sinks,
		uploader:  uploader,
		store:     store,
		logger:    logger,
	}
}

// Run bootstraps a session, extracts every category and hands the records
// to each sink in turn. Sinks fail independently of each other.
func (s *Service) Run(ctx context.Context) *report.Report {
	rep := report.New(time.Now())

	previous, err := s.store.LastRun(ctx)
	if err != nil {
		s.logger.Warnf("⚠️ Could not read the previous run: %v", err)
	} else if previous != nil {
		rep.Previous = previous
		s.logger.Infof("🕘 Previous run finished %s with %d categories",
			previous.FinishedAt.Format(time.RFC3339), previous.Stats.Records)
	}

	s.logger.Info("🔄 Opening session on the landing page...")
	session, err := s.client.Bootstrap(ctx)
	if err != nil {
		s.logger.Warnf("⚠️ Landing page unreachable, continuing without session cookies: %v", err)
	} else {
		rep.Session = session
		if session.Challenge {
			s.logger.Warnf("⚠️ Landing page looks like a bot challenge (HTTP %d)", session.StatusCode)
		}
		s.logger.Infof("✅ Session ready: HTTP %d, %d cookies", session.StatusCode, len(session.Cookies))
	}

	result := s.extractor.Extract(ctx)
	rep.SetExtraction(result)

	if len(result.Records) == 0 {
		s.logger.Error("❌ No categories were extracted, nothing to save")
		s.finish(ctx, rep)
		return rep
	}

	s.logger.Infof("📊 Total records: %d, categories: %d, subcategories: %d",
		rep.Stats.Records, rep.Stats.Categories, rep.Stats.Subcategories)

	// an interrupted extraction still saves what it collected
	writeCtx := context.WithoutCancel(ctx)

	artifacts := make([]string, 0)
	for _, sk := range s.sinks {
		outcome := s.write(writeCtx, sk, result.Records)
		rep.AddSink(outcome)

		if a, ok := sk.(sink.Artifact); ok && outcome.OK {
			artifacts = append(artifacts, a.Path())
		}
	}

	if s.uploader != nil {
		for _, path := range artifacts {
			outcome := domain.UploadOutcome{Path: path}
			remote, err := s.uploader.Upload(ctx, path)
			if err != nil {
				outcome.Error = err.Error()
				s.logger.Errorf("❌ Failed to upload %s: %v", path, err)
			} else {
				outcome.OK = true
				outcome.Remote = remote
			}
			rep.AddUpload(outcome)
		}
	}

	s.finish(ctx, rep)
	return rep
}

func (s *Service) write(ctx context.Context, sk sink.Sink, records []domain.FlatCategoryRecord) domain.SinkOutcome {
	outcome := domain.SinkOutcome{
		Name:   sk.Name(),
		Target: sk.Target(),
	}

	start := time.Now()
	err := sk.Write(ctx, records)
	outcome.Duration = time.Since(start)

	if err != nil {
		outcome.Error = err.Error()
		s.logger.WithField("sink", sk.Name()).Errorf("❌ Failed to save to %s: %v", sk.Target(), err)
		return outcome
	}

	outcome.OK = true
	outcome.Rows = len(records)
	return outcome
}

func (s *Service) finish(ctx context.Context, rep *report.Report) {
	rep.Finish(time.Now())

	// The run outcome is already decided; a cancelled ctx must not lose the summary
	if err := s.store.SaveRun(context.WithoutCancel(ctx), rep.RunSummary); err != nil {
		s.logger.Warnf("⚠️ Failed to record run summary: %v", err)
	}

	if rep.Succeeded() {
		s.logger.Info("✅ Process finished successfully")
	} else {
		s.logger.Error("❌ Process failed, check the log for details")
	}
}
