package report

import (
	"fmt"
	"io"
	"time"

	"shopee/catalog/internal/domain"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Report collects what happened during one run
type Report struct {
	domain.RunSummary
	Session  *domain.Session
	Previous *domain.RunSummary
}

func New(startedAt time.Time) *Report {
	return &Report{
		RunSummary: domain.RunSummary{
			StartedAt: startedAt,
			Sinks:     make([]domain.SinkOutcome, 0),
		},
	}
}

// SetExtraction copies the extraction counters and record statistics
func (r *Report) SetExtraction(result *domain.ExtractionResult) {
	r.TotalItems = result.TotalItems
	r.TotalPages = result.TotalPages
	r.SkippedPages = result.SkippedPages()
	r.SkippedItems = result.SkippedItems()
	r.Aborted = result.Aborted
	r.Stats = domain.Summarize(result.Records)
}

func (r *Report) AddSink(outcome domain.SinkOutcome) {
	r.Sinks = append(r.Sinks, outcome)
}

func (r *Report) AddUpload(outcome domain.UploadOutcome) {
	r.Uploads = append(r.Uploads, outcome)
}

// Finish stamps the end time and settles the overall result
func (r *Report) Finish(finishedAt time.Time) {
	r.FinishedAt = finishedAt
	r.RunSummary.Succeeded = r.Succeeded()
}

// Succeeded is true when at least one record was extracted and at least
// one sink stored it
func (r *Report) Succeeded() bool {
	if r.Stats.Records == 0 {
		return false
	}
	for _, s := range r.Sinks {
		if s.OK {
			return true
		}
	}
	return false
}

func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Shopee categories")
	t.AppendHeader(table.Row{"Step", "Target", "Result", "Details"})

	if r.Session != nil {
		details := fmt.Sprintf("HTTP %d, %d cookies", r.Session.StatusCode, len(r.Session.Cookies))
		if r.Session.Challenge {
			details += ", challenge page"
		}
		t.AppendRow(table.Row{"session", r.Session.Title, "done", details})
	} else {
		t.AppendRow(table.Row{"session", "", "skipped", "landing page unreachable"})
	}

	extraction := "ok"
	if r.Aborted != "" {
		extraction = "aborted"
	}
	t.AppendRow(table.Row{
		"extract",
		fmt.Sprintf("%d pages", r.TotalPages),
		extraction,
		fmt.Sprintf("%d/%d categories, %d pages skipped, %d items skipped", r.Stats.Records, r.TotalItems, r.SkippedPages, r.SkippedItems),
	})
	if r.Aborted != "" {
		t.AppendRow(table.Row{"", "", "", r.Aborted})
	}
	t.AppendRow(table.Row{
		"stats",
		"",
		"",
		fmt.Sprintf("%d categories, %d subcategories", r.Stats.Categories, r.Stats.Subcategories),
	})

	t.AppendSeparator()
	for _, s := range r.Sinks {
		details := fmt.Sprintf("%d rows in %s", s.Rows, s.Duration.Round(time.Millisecond))
		if !s.OK {
			details = s.Error
		}
		t.AppendRow(table.Row{s.Name, s.Target, result(s.OK), details})
	}

	if len(r.Uploads) > 0 {
		t.AppendSeparator()
		for _, u := range r.Uploads {
			details := u.Remote
			if !u.OK {
				details = u.Error
			}
			t.AppendRow(table.Row{"upload", u.Path, result(u.OK), details})
		}
	}

	status := "FAILED"
	if r.Succeeded() {
		status = "SUCCESS"
	}
	t.AppendFooter(table.Row{"run", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), status, previous(r.Previous)})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func previous(p *domain.RunSummary) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("previous run %s: %d categories", p.FinishedAt.Format("2006-01-02 15:04"), p.Stats.Records)
}
