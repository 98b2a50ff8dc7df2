package dataset

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"call-quality-go/internal/aggregator"
	"call-quality-go/internal/types"
)

const (
	SheetAll     = "All Calls"
	SheetFlagged = "Flagged"
	SheetSummary = "Summary"
)

var callHeader = []any{
	"timestamp", "call_id", "customer_name", "sentiment", "sentiment_confidence",
	"quality_score", "review_threshold", "needs_review", "review_flags",
	"supervisor_summary", "customer_message", "transcript_clean",
}

// Export writes the history as a workbook with the full log, the flagged
// calls sorted by ascending score, and the dashboard KPIs.
func Export(w io.Writer, records []types.CallRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAll); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFlagged); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	dash := aggregator.Summarize(records)
	if err := writeCalls(f, SheetAll, records); err != nil {
		return err
	}
	if err := writeCalls(f, SheetFlagged, dash.FlaggedByScore); err != nil {
		return err
	}
	if err := writeSummary(f, dash); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeCalls(f *excelize.File, sheet string, records []types.CallRecord) error {
	if err := f.SetSheetRow(sheet, "A1", &callHeader); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, r := range records {
		row := []any{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.CallID,
			r.CustomerName,
			string(r.Sentiment),
			r.SentimentConfidence,
			r.QualityScore,
			r.ReviewThreshold,
			r.NeedsReview,
			r.ReviewFlags,
			r.SupervisorSummary,
			r.CustomerMessage,
			r.TranscriptClean,
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, d aggregator.Dashboard) error {
	rows := [][]any{
		{"metric", "value"},
		{"total_calls", d.TotalCalls},
		{"flagged_calls", d.FlaggedCalls},
		{"flagged_pct", d.FlaggedPct},
		{"avg_score", d.AvgScore},
		{"avg_score_delta", d.AvgScoreDelta},
		{"notifications", d.Notifications},
		{"positive", d.SentimentCounts[types.Positive]},
		{"neutral", d.SentimentCounts[types.Neutral]},
		{"negative", d.SentimentCounts[types.Negative]},
	}
	for _, b := range d.ScoreHistogram {
		rows = append(rows, []any{"score_" + b.Label, b.Total})
	}
	for i := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, axis, &rows[i]); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return nil
}
