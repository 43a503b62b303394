package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// DailyReportRange is the sheet range daily reports are appended to. Column A
// holds the report date.
const DailyReportRange = "DailyReports!A:J"

// DailyReportHeader labels the columns written by Row.
var DailyReportHeader = []interface{}{
	"date", "orders", "completed", "revenue", "discounts", "avg_prep_seconds", "top_item", "payment_methods", "ledger_total", "generated_at",
}

// ReportSink appends one row per daily report.
type ReportSink struct {
	repo       Repository
	sheetRange string
}

// NewReportSink returns a sink writing into sheetRange, DailyReportRange when
// empty.
func NewReportSink(repo Repository, sheetRange string) *ReportSink {
	if sheetRange == "" {
		sheetRange = DailyReportRange
	}
	return &ReportSink{repo: repo, sheetRange: sheetRange}
}

// SaveDailyReport appends report unless a row for its date already exists.
// An empty sheet first receives the header row.
func (s *ReportSink) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	rows, err := s.repo.ReadRange(ctx, s.dateColumn())
	if err != nil {
		return fmt.Errorf("read report dates: %w", err)
	}
	if len(rows) == 0 {
		if err := s.repo.UpdateRange(ctx, s.sheet()+"!A1", [][]interface{}{DailyReportHeader}); err != nil {
			return fmt.Errorf("write report header: %w", err)
		}
	}
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == report.Date {
			return nil
		}
	}
	return s.repo.WriteRow(ctx, s.sheetRange, Row(report))
}

func (s *ReportSink) sheet() string {
	sheet, _, ok := strings.Cut(s.sheetRange, "!")
	if !ok {
		return "DailyReports"
	}
	return sheet
}

func (s *ReportSink) dateColumn() string {
	return s.sheet() + "!A:A"
}

// Row lays out a report as sheet cells.
func Row(report models.DailyReport) []interface{} {
	methods := make([]string, 0, len(report.PaymentMethods))
	for method := range report.PaymentMethods {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	for i, method := range methods {
		methods[i] = fmt.Sprintf("%s=%.2f", method, report.PaymentMethods[method])
	}

	return []interface{}{
		report.Date,
		report.Orders,
		report.CompletedOrder,
		report.Revenue,
		report.Discounts,
		report.AvgPrepSeconds,
		report.TopItem,
		strings.Join(methods, " "),
		report.LedgerTotal,
		report.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
