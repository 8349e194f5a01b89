package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
)

// ── export module errors ──

var (
	ErrExportGenerateFail = errors.New("generate export file failed")
)

const calendarProductID = "-//Downward//Descent Journal//EN"

// ExportService file exports.
//
// Both methods return the file body and a suggested filename; the handler
// sets the download headers.
type ExportService interface {
	// ExportStats admin workbook: a summary sheet and one row per descent type
	ExportStats(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
	// ExportHistoryICS the actor's own sessions as calendar events
	ExportHistoryICS(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	authz  Authorizer
	now    Clock
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, authz Authorizer, clock Clock, logger *zap.Logger) ExportService {
	if clock == nil {
		clock = SystemClock
	}
	return &exportService{repo: repo, authz: authz, now: clock, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportStats
// ═══════════════════════════════════════════════════════════
//
// Sheets:
//   - "Summary": metric | value
//   - "By descent type": name | sessions | completed | abandoned | entries | avg emotion

func (s *exportService) ExportStats(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	if err := s.authz.Require(actor, CapViewStats); err != nil {
		return nil, "", err
	}

	statusCounts, err := s.repo.Stats.SessionStatusCounts(ctx)
	if err != nil {
		s.logger.Error("count sessions by status failed", zap.Error(err))
		return nil, "", err
	}
	perType, err := s.repo.Stats.PerDescentType(ctx)
	if err != nil {
		s.logger.Error("aggregate by descent type failed", zap.Error(err))
		return nil, "", err
	}
	users, err := s.repo.User.Count(ctx)
	if err != nil {
		s.logger.Error("count users failed", zap.Error(err))
		return nil, "", err
	}
	entries, err := s.repo.Entry.Count(ctx)
	if err != nil {
		s.logger.Error("count entries failed", zap.Error(err))
		return nil, "", err
	}

	byStatus := make(map[model.SessionStatus]int64, len(statusCounts))
	var totalSessions int64
	for _, sc := range statusCounts {
		byStatus[sc.Status] = sc.N
		totalSessions += sc.N
	}

	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	const byType = "By descent type"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	if _, err := f.NewSheet(byType); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// summary sheet
	f.SetColWidth(summary, "A", "A", 24)
	f.SetColWidth(summary, "B", "B", 14)
	f.SetSheetRow(summary, "A1", &[]interface{}{"Metric", "Value"})
	f.SetCellStyle(summary, "A1", "B1", headerStyle)
	summaryRows := [][]interface{}{
		{"Generated at", formatTime(s.now())},
		{"Users", users},
		{"Sessions", totalSessions},
		{"Started", byStatus[model.StatusStarted]},
		{"In progress", byStatus[model.StatusInProgress]},
		{"Completed", byStatus[model.StatusCompleted]},
		{"Abandoned", byStatus[model.StatusAbandoned]},
		{"Entries", entries},
	}
	for i, row := range summaryRows {
		r := row
		f.SetSheetRow(summary, cell("A", i+2), &r)
	}

	// per descent type sheet
	f.SetColWidth(byType, "A", "A", 28)
	f.SetColWidth(byType, "B", "F", 14)
	f.SetSheetRow(byType, "A1", &[]interface{}{"Descent type", "Sessions", "Completed", "Abandoned", "Entries", "Avg emotion"})
	f.SetCellStyle(byType, "A1", "F1", headerStyle)
	for i, agg := range perType {
		f.SetSheetRow(byType, cell("A", i+2), &[]interface{}{
			agg.Name, agg.Sessions, agg.Completed, agg.Abandoned, agg.Entries, fmt.Sprintf("%.2f", agg.AvgEmotion),
		})
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("downward_stats_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportHistoryICS
// ═══════════════════════════════════════════════════════════
//
// One VEVENT per session: DTSTART started_at, DTEND completion/abandonment
// (or now while active), SUMMARY the descent type name.

func (s *exportService) ExportHistoryICS(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	sessions, err := s.repo.Session.ListAllByUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("list sessions failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, "", err
	}

	now := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("Downward history")

	for i := range sessions {
		sess := &sessions[i]

		event := cal.AddEvent(sess.SessionID + "@downward")
		event.SetDtStampTime(now)
		event.SetStartAt(sess.StartedAt)
		end := now
		if ended := sess.EndedAt(); ended != nil {
			end = *ended
		}
		event.SetEndAt(end)

		summary := "Descent"
		if sess.DescentType != nil {
			summary = sess.DescentType.Name
		}
		event.SetSummary(summary)
		if sess.Notes != "" {
			event.SetDescription(sess.Notes)
		}
		event.SetStatus(calendarStatus(sess.Status))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, "downward_history.ics", nil
}

func calendarStatus(status model.SessionStatus) ics.ObjectStatus {
	switch status {
	case model.StatusCompleted:
		return ics.ObjectStatusConfirmed
	case model.StatusAbandoned:
		return ics.ObjectStatusCancelled
	}
	return ics.ObjectStatusTentative
}

// ── helpers ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
