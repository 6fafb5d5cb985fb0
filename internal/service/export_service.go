package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/export"
	"github.com/noah-isme/rsvp-agenda/pkg/timecalc"
)

type agendaViewer interface {
	View(query dto.AgendaQuery) dto.AgendaView
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, entries []export.CalendarEntry) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Title string
	// Location interprets event wall-clock times for calendar feeds.
	Location *time.Location
}

// ExportResult is a rendered agenda document.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Events      int
}

var exportHeaders = []string{"Date", "Start", "End", "Title", "Type", "Location", "Link", "Yes", "No", "Maybe"}

// ExportService renders the agenda view as CSV, PDF or iCalendar.
type ExportService struct {
	agenda agendaViewer
	csv    csvRenderer
	pdf    pdfRenderer
	ics    icsRenderer
	cfg    ExportConfig
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers get the
// defaults from pkg/export.
func NewExportService(agenda agendaViewer, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, ics icsRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Agenda"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter("")
	}
	return &ExportService{agenda: agenda, csv: csv, pdf: pdf, ics: ics, cfg: cfg, logger: logger}
}

// Export renders every event visible under query, collapsed groups
// included.
func (s *ExportService) Export(ctx context.Context, format models.ExportFormat, query dto.AgendaQuery) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, appErrors.FromError(err)
	}
	view := s.agenda.View(query)

	var (
		body []byte
		err  error
	)
	switch format {
	case models.ExportFormatCSV:
		body, err = s.csv.Render(s.buildDataset(view))
	case models.ExportFormatPDF:
		body, err = s.pdf.Render(s.buildDataset(view))
	case models.ExportFormatICS:
		body, err = s.ics.Render(s.cfg.Title, s.buildEntries(view))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or ics")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("agenda exported", zap.String("format", string(format)), zap.Int("events", view.Visible), zap.Int("bytes", len(body)))
	return &ExportResult{
		Filename:    s.buildFilename(format),
		ContentType: format.ContentType(),
		Body:        body,
		Events:      view.Visible,
	}, nil
}

func (s *ExportService) buildFilename(format models.ExportFormat) string {
	return fmt.Sprintf("%s.%s", sanitizeFilename(s.cfg.Title), format)
}

func sanitizeFilename(raw string) string {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if trimmed == "" {
		return "agenda"
	}
	replacer := strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-", "\"", "", "'", "")
	return replacer.Replace(trimmed)
}

func (s *ExportService) buildDataset(view dto.AgendaView) export.Dataset {
	data := export.Dataset{Title: s.cfg.Title, Headers: exportHeaders}
	for _, group := range view.Groups {
		section := export.Section{Label: group.Label, Rows: make([]export.Row, 0, len(group.Events))}
		for _, card := range group.Events {
			yes, no, maybe := "", "", ""
			if card.Summary != nil {
				yes = strconv.Itoa(card.Summary.Yes)
				no = strconv.Itoa(card.Summary.No)
				maybe = strconv.Itoa(card.Summary.Maybe)
			}
			section.Rows = append(section.Rows, export.Row{
				Values: []string{card.Date, card.StartLabel, card.EndTime, card.Title, card.TypeLabel, card.Location, card.Link, yes, no, maybe},
				Accent: card.StripeColor,
			})
		}
		data.Sections = append(data.Sections, section)
	}
	return data
}

// buildEntries skips events whose date cannot be placed on a calendar.
func (s *ExportService) buildEntries(view dto.AgendaView) []export.CalendarEntry {
	entries := make([]export.CalendarEntry, 0, view.Visible)
	for _, group := range view.Groups {
		for _, card := range group.Events {
			start, ok := s.startTime(card.Event)
			if !ok {
				s.logger.Debug("skipping undated event in calendar export", zap.Int64("event_id", card.ID))
				continue
			}
			entry := export.CalendarEntry{
				UID:         fmt.Sprintf("event-%d@rsvp-agenda", card.ID),
				Summary:     card.Title,
				Description: card.Description,
				Location:    card.Location,
				URL:         card.Link,
				Start:       start,
			}
			if card.DurationMinutes != nil {
				end := start.Add(time.Duration(*card.DurationMinutes) * time.Minute)
				entry.End = &end
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

func (s *ExportService) startTime(e models.Event) (time.Time, bool) {
	day, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(e.Date), s.cfg.Location)
	if err != nil {
		return time.Time{}, false
	}
	minutes := timecalc.ToMinutes(e.Start)
	return day.Add(time.Duration(minutes) * time.Minute), true
}
